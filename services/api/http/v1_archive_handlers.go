package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thermolog/thermolog/services/api/db"
)

// ArchiveReader serves history that has aged out of the ring.
type ArchiveReader interface {
	ListSensors(ctx context.Context) ([]db.Sensor, error)
	FetchReadings(ctx context.Context, q db.ReadingQuery) ([]db.Reading, error)
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
}

// SetArchive enables the /api/v1/archive endpoints.
func (s *Server) SetArchive(r ArchiveReader) {
	s.archive = r
}

func (s *Server) requireArchive(c *gin.Context) bool {
	if s.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "archive not configured"})
		return false
	}
	return true
}

// handleV1ArchiveSensors returns archived sensor rows
// GET /api/v1/archive/sensors
func (s *Server) handleV1ArchiveSensors(c *gin.Context) {
	if !s.requireArchive(c) {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	sensors, err := s.archive.ListSensors(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": sensors,
		"meta": gin.H{"count": len(sensors)},
	})
}

// handleV1ArchiveReadings returns archived readings for a sensor
// GET /api/v1/archive/sensors/:name/readings
func (s *Server) handleV1ArchiveReadings(c *gin.Context) {
	if !s.requireArchive(c) {
		return
	}

	limit, ok := queryInt(c, "last_n", s.cfg.DefaultLimit)
	if !ok {
		return
	}
	q := db.ReadingQuery{Sensor: c.Param("name"), Limit: limit}

	if daysStr := c.Query("last_n_days"); daysStr != "" {
		window, ok := queryDuration(c, "last_n_days", 24*time.Hour, 0)
		if !ok {
			return
		}
		t := time.Now().UTC().Add(-window)
		q.Since = &t
	}
	if startStr := c.Query("start"); startStr != "" {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start timestamp"})
			return
		}
		tt := t.UTC()
		q.Since = &tt
	}
	if endStr := c.Query("end"); endStr != "" {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end timestamp"})
			return
		}
		tt := t.UTC()
		q.Until = &tt
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	readings, err := s.archive.FetchReadings(ctx, q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": readings,
		"meta": gin.H{
			"sensor": q.Sensor,
			"count":  len(readings),
			"limit":  limit,
		},
	})
}

// handleV1ArchiveRuns lists recent archive runs
// GET /api/v1/archive/runs
func (s *Server) handleV1ArchiveRuns(c *gin.Context) {
	if !s.requireArchive(c) {
		return
	}
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	runs, err := s.archive.ListRuns(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
		"meta": gin.H{"count": len(runs)},
	})
}
