// Package apiclient posts collected readings to the thermolog API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/thermolog/thermolog/services/collector/internal/models"
)

// Result is one per-reading entry of a bulk ingest response.
type Result struct {
	Sensor  string `json:"sensor"`
	Outcome *struct {
		SensorID  int    `json:"sensor_id"`
		Action    string `json:"action"`
		NewSensor bool   `json:"new_sensor"`
	} `json:"outcome,omitempty"`
	Error string `json:"error,omitempty"`
}

// Response is the decoded bulk ingest reply.
type Response struct {
	Data []Result `json:"data"`
	Meta struct {
		Received int `json:"received"`
		Accepted int `json:"accepted"`
		Rejected int `json:"rejected"`
	} `json:"meta"`
}

// MaxBatch matches the largest bulk request the API accepts.
const MaxBatch = 500

// Client talks to the API ingest endpoint.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for baseURL.
func New(baseURL, token string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, token: token, http: httpClient}
}

// PostReadings sends readings in bulk requests of at most MaxBatch and merges
// the replies. It stops at the first failing request; the returned response
// covers the chunks that were accepted before it.
func (c *Client) PostReadings(ctx context.Context, readings []models.Reading) (Response, error) {
	var total Response
	for start := 0; start < len(readings); start += MaxBatch {
		end := min(start+MaxBatch, len(readings))
		resp, err := c.postChunk(ctx, readings[start:end])
		if err != nil {
			return total, fmt.Errorf("readings %d-%d: %w", start, end-1, err)
		}
		total.Data = append(total.Data, resp.Data...)
		total.Meta.Received += resp.Meta.Received
		total.Meta.Accepted += resp.Meta.Accepted
		total.Meta.Rejected += resp.Meta.Rejected
	}
	return total, nil
}

func (c *Client) postChunk(ctx context.Context, readings []models.Reading) (Response, error) {
	body, err := json.Marshal(struct {
		Readings []models.Reading `json:"readings"`
	}{readings})
	if err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/core/readings", bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("post readings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Response{}, fmt.Errorf("unexpected status %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
