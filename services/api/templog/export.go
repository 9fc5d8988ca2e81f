package templog

import (
	"bytes"
	"encoding/csv"
	"sort"
	"strconv"
)

// ExportCSV renders the count most recent records as
// "timestamp,sensor_name,temperature" with unix-second timestamps.
func (s *Store) ExportCSV(count int) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"timestamp", "sensor_name", "temperature"})
	for _, smp := range s.RecentReadings(count) {
		_ = w.Write([]string{
			strconv.FormatInt(smp.Timestamp.Unix(), 10),
			smp.Sensor,
			strconv.FormatFloat(smp.Temperature, 'f', 2, 64),
		})
	}
	w.Flush()
	return buf.String()
}

// ExportDetailsCSV renders every detail snapshot sorted by sensor name.
// Missing optional fields are left empty.
func (s *Store) ExportDetailsCSV() string {
	details := s.Details(0)
	names := make([]string, 0, len(details))
	for name := range details {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"sensor_name", "sensor_id", "temperature", "humidity", "battery_level", "rssi", "voltage", "power", "last_updated"})
	for _, name := range names {
		d := details[name]
		rssi := ""
		if d.RSSI != nil {
			rssi = strconv.Itoa(*d.RSSI)
		}
		_ = w.Write([]string{
			name,
			strconv.Itoa(int(d.SensorID)),
			strconv.FormatFloat(d.Temperature, 'f', -1, 64),
			formatOptional(d.Humidity),
			formatOptional(d.Battery),
			rssi,
			formatOptional(d.Voltage),
			formatOptional(d.Power),
			strconv.FormatInt(d.UpdatedAt.Unix(), 10),
		})
	}
	w.Flush()
	return buf.String()
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
