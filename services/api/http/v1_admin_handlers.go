package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleV1AdminClear drops every stored reading but keeps sensor ids
// POST /api/v1/admin/clear
func (s *Server) handleV1AdminClear(c *gin.Context) {
	s.store.ClearAll()
	s.log.Info("readings cleared over http", zap.String("remote", c.ClientIP()))
	s.hub.Broadcast(Event{Type: "cleared", Timestamp: time.Now().UTC()})
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"cleared": true}})
}

// handleV1AdminReset drops every reading and forgets all sensors
// POST /api/v1/admin/reset
func (s *Server) handleV1AdminReset(c *gin.Context) {
	s.store.ResetSensors()
	s.log.Info("sensors reset over http", zap.String("remote", c.ClientIP()))
	s.hub.Broadcast(Event{Type: "reset", Timestamp: time.Now().UTC()})
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"reset": true}})
}
