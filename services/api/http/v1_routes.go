package http

// registerV1Routes sets up the v1 API structure.
// Groups: /api/v1/core, /api/v1/realtime, /api/v1/reports, /api/v1/export,
// /api/v1/archive, /api/v1/admin
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware()) // Add X-API-Version: v1 header

	// Core endpoints - ingestion and per-sensor queries
	core := v1.Group("/core")
	{
		core.POST("/readings", s.handleV1IngestReadings)
		core.GET("/sensors", s.handleV1ListSensors)
		core.GET("/sensors/:name", s.handleV1GetSensor)
		core.GET("/sensors/:name/history", s.handleV1SensorHistory)
		core.GET("/sensors/:name/stats", s.handleV1SensorStats)
		core.POST("/sensors/:name/force", s.handleV1ForceReading)
	}

	// Realtime endpoints - latest values and push
	realtime := v1.Group("/realtime")
	{
		realtime.GET("/now", s.handleV1RealtimeNow)
		realtime.GET("/state", s.handleV1RealtimeState)
		realtime.GET("/details", s.handleV1RealtimeDetails)
		realtime.GET("/ready", s.handleV1RealtimeReady)
		realtime.GET("/ws", s.hub.serve)
	}

	reports := v1.Group("/reports")
	{
		reports.GET("/daily", s.handleV1DailySummary)
		reports.GET("/storage", s.handleV1StorageStats)
		reports.GET("/memory", s.handleV1MemoryInfo)
		reports.GET("/daily.txt", s.handleV1DailyReportText)
		reports.GET("/storage.txt", s.handleV1StorageReportText)
		reports.GET("/details.txt", s.handleV1DetailsReportText)
	}

	export := v1.Group("/export")
	{
		export.GET("/readings.csv", s.handleV1ExportReadings)
		export.GET("/details.csv", s.handleV1ExportDetails)
	}

	// Archive endpoints - history persisted outside the ring
	archive := v1.Group("/archive")
	{
		archive.GET("/sensors", s.handleV1ArchiveSensors)
		archive.GET("/sensors/:name/readings", s.handleV1ArchiveReadings)
		archive.GET("/runs", s.handleV1ArchiveRuns)
	}

	admin := v1.Group("/admin")
	{
		admin.POST("/clear", s.handleV1AdminClear)
		admin.POST("/reset", s.handleV1AdminReset)
	}
}
