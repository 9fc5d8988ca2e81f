package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/thermolog/thermolog/services/collector/internal/models"
)

// FetchDevices retrieves the current device list from the gateway.
func FetchDevices(ctx context.Context, client *http.Client, url string) (models.GatewayResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.GatewayResponse{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return models.GatewayResponse{}, fmt.Errorf("request gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.GatewayResponse{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload models.GatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.GatewayResponse{}, fmt.Errorf("decode payload: %w", err)
	}

	return payload, nil
}
