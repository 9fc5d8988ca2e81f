package http

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GET /api/v1/reports/daily
func (s *Server) handleV1DailySummary(c *gin.Context) {
	window, ok := queryDuration(c, "hours", time.Hour, time.Duration(s.cfg.DefaultHours)*time.Hour)
	if !ok {
		return
	}

	summary := s.store.DailySummary(window)
	c.JSON(http.StatusOK, gin.H{
		"data": summary,
		"meta": gin.H{
			"sensors_count": len(summary),
			"hours":         window.Hours(),
		},
	})
}

// GET /api/v1/reports/storage
func (s *Server) handleV1StorageStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.store.StorageStats()})
}

// GET /api/v1/reports/memory
func (s *Server) handleV1MemoryInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.store.MemoryInfo()})
}

// GET /api/v1/reports/daily.txt
func (s *Server) handleV1DailyReportText(c *gin.Context) {
	window, ok := queryDuration(c, "hours", time.Hour, time.Duration(s.cfg.DefaultHours)*time.Hour)
	if !ok {
		return
	}
	s.writeText(c, func(w io.Writer) error { return s.store.WriteDailyReport(w, window) })
}

// GET /api/v1/reports/storage.txt
func (s *Server) handleV1StorageReportText(c *gin.Context) {
	s.writeText(c, s.store.WriteStorageReport)
}

// GET /api/v1/reports/details.txt
func (s *Server) handleV1DetailsReportText(c *gin.Context) {
	maxAge, ok := queryDuration(c, "max_age", time.Minute, s.cfg.DefaultMaxAge)
	if !ok {
		return
	}
	s.writeText(c, func(w io.Writer) error { return s.store.WriteDetailsReport(w, maxAge) })
}

// GET /api/v1/export/readings.csv
func (s *Server) handleV1ExportReadings(c *gin.Context) {
	count, ok := queryInt(c, "count", s.cfg.ExportCount)
	if !ok {
		return
	}
	c.Header("Content-Disposition", `attachment; filename="readings.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(s.store.ExportCSV(count)))
}

// GET /api/v1/export/details.csv
func (s *Server) handleV1ExportDetails(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="details.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(s.store.ExportDetailsCSV()))
}

func (s *Server) writeText(c *gin.Context, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}
