package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thermolog/thermolog/services/api/templog"
)

const maxBulkReadings = 500

type readingPayload struct {
	Sensor      string   `json:"sensor"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Battery     *float64 `json:"battery"`
	RSSI        *int     `json:"rssi"`
	Voltage     *float64 `json:"voltage"`
	Power       *float64 `json:"power"`
}

type ingestRequest struct {
	readingPayload
	Readings []readingPayload `json:"readings"`
}

type ingestResult struct {
	Sensor  string           `json:"sensor"`
	Outcome *templog.Outcome `json:"outcome,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func (p readingPayload) reading() (templog.Reading, error) {
	name := strings.TrimSpace(p.Sensor)
	if name == "" {
		return templog.Reading{}, errors.New("sensor is required")
	}
	if p.Temperature == nil {
		return templog.Reading{}, errors.New("temperature is required")
	}
	if math.IsNaN(*p.Temperature) || math.IsInf(*p.Temperature, 0) {
		return templog.Reading{}, errors.New("temperature must be finite")
	}
	return templog.Reading{
		Sensor:      name,
		Temperature: *p.Temperature,
		Humidity:    p.Humidity,
		Battery:     p.Battery,
		RSSI:        p.RSSI,
		Voltage:     p.Voltage,
		Power:       p.Power,
	}, nil
}

// record ingests one reading and publishes it to websocket subscribers.
func (s *Server) record(r templog.Reading) (templog.Outcome, error) {
	out, err := s.store.Record(r)
	if err != nil {
		return out, err
	}
	if out.NewSensor {
		s.log.Info("sensor first seen over http", zap.String("sensor", r.Sensor))
	}
	s.hub.Broadcast(Event{
		Type:      "reading",
		Sensor:    r.Sensor,
		Action:    string(out.Action),
		Payload:   r,
		Timestamp: time.Now().UTC(),
	})
	return out, nil
}

// handleV1IngestReadings accepts one reading or a {"readings": [...]} batch
// POST /api/v1/core/readings
func (s *Server) handleV1IngestReadings(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	if req.Readings == nil {
		reading, err := req.readingPayload.reading()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		out, err := s.record(reading)
		if errors.Is(err, templog.ErrCapacityExceeded) {
			c.JSON(http.StatusInsufficientStorage, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": out})
		return
	}

	if len(req.Readings) > maxBulkReadings {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("at most %d readings per request", maxBulkReadings)})
		return
	}

	results := make([]ingestResult, 0, len(req.Readings))
	accepted := 0
	for _, p := range req.Readings {
		res := ingestResult{Sensor: p.Sensor}
		reading, err := p.reading()
		if err == nil {
			var out templog.Outcome
			out, err = s.record(reading)
			if err == nil {
				res.Outcome = &out
				accepted++
			}
		}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}

	c.JSON(http.StatusOK, gin.H{
		"data": results,
		"meta": gin.H{
			"received": len(req.Readings),
			"accepted": accepted,
			"rejected": len(req.Readings) - accepted,
		},
	})
}

// handleV1ListSensors returns all registered sensors
// GET /api/v1/core/sensors
func (s *Server) handleV1ListSensors(c *gin.Context) {
	names := s.store.SensorNames()
	sensors := make([]gin.H, 0, len(names))
	for _, name := range names {
		id, _ := s.store.SensorID(name)
		sensors = append(sensors, gin.H{"id": id, "name": name})
	}

	mem := s.store.MemoryInfo()
	c.JSON(http.StatusOK, gin.H{
		"data": sensors,
		"meta": gin.H{
			"count":       len(sensors),
			"max_sensors": mem.MaxSensors,
		},
	})
}

// handleV1GetSensor returns the status of a specific sensor
// GET /api/v1/core/sensors/:name
func (s *Server) handleV1GetSensor(c *gin.Context) {
	name := c.Param("name")
	if !s.store.SensorExists(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "sensor not found"})
		return
	}

	status, ok := s.store.Status(name)
	if !ok {
		// registered but nothing stored since the last clear
		status = templog.SensorStatus{Sensor: name, ReadyForStore: true}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": status,
	})
}

// handleV1SensorHistory returns up to last_n stored points, oldest first
// GET /api/v1/core/sensors/:name/history
func (s *Server) handleV1SensorHistory(c *gin.Context) {
	name := c.Param("name")
	limit, ok := queryInt(c, "last_n", s.cfg.DefaultLimit)
	if !ok {
		return
	}

	points := s.store.History(name, limit)
	c.JSON(http.StatusOK, gin.H{
		"data": points,
		"meta": gin.H{
			"sensor": name,
			"count":  len(points),
			"limit":  limit,
		},
	})
}

// handleV1SensorStats returns min/max/avg over the last `hours`
// GET /api/v1/core/sensors/:name/stats
func (s *Server) handleV1SensorStats(c *gin.Context) {
	name := c.Param("name")
	window, ok := queryDuration(c, "hours", time.Hour, time.Duration(s.cfg.DefaultHours)*time.Hour)
	if !ok {
		return
	}

	stats, found := s.store.SensorStats(name, window)
	if !found {
		c.JSON(http.StatusOK, gin.H{
			"data": nil,
			"meta": gin.H{"sensor": name, "hours": window.Hours()},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": stats,
		"meta": gin.H{"sensor": name, "hours": window.Hours()},
	})
}

// handleV1ForceReading makes the next reading of a sensor append
// POST /api/v1/core/sensors/:name/force
func (s *Server) handleV1ForceReading(c *gin.Context) {
	name := c.Param("name")
	if !s.store.ForceNewReading(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "sensor not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"sensor": name, "forced": true}})
}
