package templog

import (
	"fmt"
	"time"
)

// StorageStats describes how the ring is being used.
type StorageStats struct {
	TotalRecords            int            `json:"total_records"`
	Capacity                int            `json:"capacity"`
	PercentFull             float64        `json:"percent_full"`
	RecordsPerSensor        map[string]int `json:"records_per_sensor"`
	AveragePerSensor        float64        `json:"average_per_sensor"`
	TheoreticalMaxPerSensor int            `json:"theoretical_max_per_sensor"`
	StorageEfficiency       string         `json:"storage_efficiency"`
}

// MemoryInfo is a diagnostic snapshot of the fixed buffers.
type MemoryInfo struct {
	UsedRecords      int       `json:"used_records"`
	MaxRecords       int       `json:"max_records"`
	UsedBytes        int       `json:"used_bytes"`
	MaxBytes         int       `json:"max_bytes"`
	PercentFull      float64   `json:"percent_full"`
	BytesPerRecord   int       `json:"bytes_per_record"`
	SensorCount      int       `json:"sensor_count"`
	MaxSensors       int       `json:"max_sensors"`
	DetailedCount    int       `json:"detailed_readings_count"`
	SensorSlotsUsed  string    `json:"sensor_slots_used"`
	Epoch            time.Time `json:"epoch"`
	DaysRunning      float64   `json:"days_running"`
	BufferWrapped    bool      `json:"buffer_wrapped"`
	HeadPosition     int       `json:"head_position"`
	TailPosition     int       `json:"tail_position"`
	MinIntervalSecs  float64   `json:"min_interval_seconds"`
	IngestionCounter Counters  `json:"counters"`
}

// StorageStats counts records per sensor and derives the daily ceiling
// implied by the minimum interval.
func (s *Store) StorageStats() StorageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	perDay := int((24 * time.Hour) / s.opts.MinInterval)
	stats := StorageStats{
		TotalRecords:            s.ring.Len(),
		Capacity:                s.ring.Cap(),
		PercentFull:             percent(s.ring.Len(), s.ring.Cap()),
		RecordsPerSensor:        make(map[string]int),
		TheoreticalMaxPerSensor: perDay,
		StorageEfficiency:       "0.0%",
	}

	valid := func(id SensorID) bool { return int(id) < s.registry.Len() }
	for e := range s.ring.Scan(valid, nil) {
		stats.RecordsPerSensor[s.registry.names[e.SensorID]]++
	}

	if n := s.registry.Len(); n > 0 {
		stats.AveragePerSensor = float64(stats.TotalRecords) / float64(n)
		stats.StorageEfficiency = fmt.Sprintf("%.1f%%", percent(stats.TotalRecords, n*perDay))
	}
	return stats
}

// MemoryInfo reports buffer occupancy, sensor slots and ingestion counters.
func (s *Store) MemoryInfo() MemoryInfo {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	sensors := s.registry.Len()
	return MemoryInfo{
		UsedRecords:      s.ring.Len(),
		MaxRecords:       s.ring.Cap(),
		UsedBytes:        s.ring.Len() * RecordSize,
		MaxBytes:         s.ring.Bytes(),
		PercentFull:      percent(s.ring.Len(), s.ring.Cap()),
		BytesPerRecord:   RecordSize,
		SensorCount:      sensors,
		MaxSensors:       s.registry.Cap(),
		DetailedCount:    s.details.count(sensors),
		SensorSlotsUsed:  fmt.Sprintf("%d/%d", sensors, s.registry.Cap()),
		Epoch:            s.ring.Epoch(),
		DaysRunning:      round(now.Sub(s.created).Hours()/24, 2),
		BufferWrapped:    s.ring.Full(),
		HeadPosition:     s.ring.Head(),
		TailPosition:     s.ring.Tail(),
		MinIntervalSecs:  s.opts.MinInterval.Seconds(),
		IngestionCounter: s.counters,
	}
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return round(float64(n)/float64(total)*100, 2)
}
