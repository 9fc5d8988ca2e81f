package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleV1RealtimeNow returns the latest temperature per sensor
// GET /api/v1/realtime/now
func (s *Server) handleV1RealtimeNow(c *gin.Context) {
	maxAge, ok := queryDuration(c, "max_age", time.Minute, s.cfg.DefaultMaxAge)
	if !ok {
		return
	}

	values := s.store.CurrentValues(maxAge)
	c.JSON(http.StatusOK, gin.H{
		"data": values,
		"meta": gin.H{
			"sensors_count":   len(values),
			"max_age_minutes": maxAge.Minutes(),
			"generated_at":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// handleV1RealtimeState returns the latest value with its timestamp and age
// GET /api/v1/realtime/state
func (s *Server) handleV1RealtimeState(c *gin.Context) {
	maxAge, ok := queryDuration(c, "max_age", time.Minute, s.cfg.DefaultMaxAge)
	if !ok {
		return
	}

	state := s.store.CurrentState(maxAge)
	c.JSON(http.StatusOK, gin.H{
		"data": state,
		"meta": gin.H{
			"sensors_count":   len(state),
			"max_age_minutes": maxAge.Minutes(),
			"generated_at":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// handleV1RealtimeDetails returns the latest full telemetry per sensor
// GET /api/v1/realtime/details
func (s *Server) handleV1RealtimeDetails(c *gin.Context) {
	maxAge, ok := queryDuration(c, "max_age", time.Minute, s.cfg.DefaultMaxAge)
	if !ok {
		return
	}

	details := s.store.Details(maxAge)
	c.JSON(http.StatusOK, gin.H{
		"data": details,
		"meta": gin.H{
			"sensors_count":   len(details),
			"max_age_minutes": maxAge.Minutes(),
		},
	})
}

// handleV1RealtimeReady lists sensors whose next reading will be appended
// GET /api/v1/realtime/ready
func (s *Server) handleV1RealtimeReady(c *gin.Context) {
	ready := s.store.SensorsReady()
	c.JSON(http.StatusOK, gin.H{
		"data": ready,
		"meta": gin.H{
			"count":                len(ready),
			"min_interval_seconds": s.store.Options().MinInterval.Seconds(),
		},
	})
}
