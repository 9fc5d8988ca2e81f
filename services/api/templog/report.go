package templog

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"
)

// WriteDailyReport prints the per-sensor summary for the last window.
func (s *Store) WriteDailyReport(w io.Writer, window time.Duration) error {
	summary := s.DailySummary(window)
	hours := window.Hours()
	if len(summary) == 0 {
		_, err := fmt.Fprintf(w, "No data available for last %g hours\n", hours)
		return err
	}

	fmt.Fprintf(w, "=== Temperature Report - Last %g Hours ===\n", hours)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Sensor\tCount\tMin\tMax\tAvg\tLatest\tAge")
	for _, name := range sortedKeys(summary) {
		d := summary[name]
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f\t%.1f\t%.1f\t%.1fm\n",
			name, d.Count, d.Min, d.Max, d.Avg, d.Latest, d.LatestAgeMinutes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nTotal sensors: %d\n", len(summary))
	return err
}

// WriteStorageReport prints ring utilization and per-sensor counts.
func (s *Store) WriteStorageReport(w io.Writer) error {
	stats := s.StorageStats()
	mem := s.MemoryInfo()

	fmt.Fprintln(w, "=== Storage Report ===")
	fmt.Fprintf(w, "Total records stored: %d\n", mem.UsedRecords)
	fmt.Fprintf(w, "Buffer utilization: %.1f%%\n", mem.PercentFull)
	fmt.Fprintf(w, "Detailed readings stored: %d\n", mem.DetailedCount)
	fmt.Fprintf(w, "Average per sensor: %.1f\n", stats.AveragePerSensor)
	fmt.Fprintf(w, "Expected daily max per sensor: %d\n", stats.TheoreticalMaxPerSensor)
	fmt.Fprintf(w, "Current storage efficiency: %s\n", stats.StorageEfficiency)

	if len(stats.RecordsPerSensor) > 0 {
		fmt.Fprintln(w, "Records per sensor:")
		for _, name := range sortedKeys(stats.RecordsPerSensor) {
			fmt.Fprintf(w, "  %s: %d\n", name, stats.RecordsPerSensor[name])
		}
	}

	var hint string
	switch {
	case mem.UsedRecords < 50:
		hint = "WARN: very few records stored, history may not be accumulating"
	case mem.PercentFull > 90:
		hint = "WARN: buffer nearly full, oldest data is being overwritten"
	case mem.PercentFull < 10:
		hint = "OK: plenty of storage space available"
	}
	if hint == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, hint)
	return err
}

// WriteDetailsReport prints the detail snapshots no older than maxAge.
func (s *Store) WriteDetailsReport(w io.Writer, maxAge time.Duration) error {
	details := s.Details(maxAge)
	if len(details) == 0 {
		_, err := fmt.Fprintf(w, "No detailed readings available (within %s)\n", maxAge)
		return err
	}

	fmt.Fprintln(w, "=== Last Detailed Readings Report ===")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Sensor\tTemp\tHumid\tBatt\tRSSI\tVolt\tPower\tAge")
	for _, name := range sortedKeys(details) {
		d := details[name]
		rssi := "---"
		if d.RSSI != nil {
			rssi = fmt.Sprintf("%d", *d.RSSI)
		}
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\t%s\t%s\t%s\t%.1fm\n",
			name, d.Temperature,
			formatUnit(d.Humidity, "%.1f%%"),
			formatUnit(d.Battery, "%.0f%%"),
			rssi,
			formatUnit(d.Voltage, "%.2fV"),
			formatUnit(d.Power, "%.1fW"),
			d.AgeMinutes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nTotal sensors with detailed readings: %d\n", len(details))
	return err
}

func formatUnit(v *float64, format string) string {
	if v == nil {
		return "---"
	}
	return strings.TrimSpace(fmt.Sprintf(format, *v))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
