package templog

import (
	"math"
	"sort"
	"time"
)

// Point is one stored temperature for a known sensor.
type Point struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
}

// Sample is a stored temperature with its sensor name resolved.
type Sample struct {
	Timestamp   time.Time `json:"timestamp"`
	Sensor      string    `json:"sensor"`
	Temperature float64   `json:"temperature"`
}

// CurrentReading is the latest stored value for a sensor.
type CurrentReading struct {
	Temperature float64   `json:"temperature"`
	Timestamp   time.Time `json:"timestamp"`
	AgeMinutes  float64   `json:"age_minutes"`
}

// Summary aggregates one sensor over a window.
type Summary struct {
	Count            int       `json:"count"`
	Min              float64   `json:"min"`
	Max              float64   `json:"max"`
	Avg              float64   `json:"avg"`
	Latest           float64   `json:"latest"`
	LatestAt         time.Time `json:"latest_at"`
	LatestAgeMinutes float64   `json:"latest_age_minutes"`
	Hours            float64   `json:"hours_covered"`
}

// SensorStats is the per-sensor aggregate returned by Store.SensorStats.
type SensorStats struct {
	Sensor string  `json:"sensor"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Hours  float64 `json:"hours"`
}

// SensorStatus combines the detail snapshot with recent history.
type SensorStatus struct {
	Sensor        string       `json:"sensor"`
	HasDetail     bool         `json:"has_detailed_reading"`
	HasHistory    bool         `json:"has_historical_data"`
	Detail        *Snapshot    `json:"last_detailed,omitempty"`
	DailyStats    *SensorStats `json:"daily_stats,omitempty"`
	SinceStorage  *float64     `json:"seconds_since_storage,omitempty"`
	ReadyForStore bool         `json:"ready_for_storage"`
}

// samples collects every entry accepted by keep, oldest first. The caller
// must hold at least the read lock.
func (s *Store) samplesLocked(keep func(Entry) bool) []Sample {
	valid := func(id SensorID) bool { return int(id) < s.registry.Len() }
	out := make([]Sample, 0, s.ring.Len())
	for e := range s.ring.Scan(valid, keep) {
		out = append(out, Sample{
			Timestamp:   e.Timestamp,
			Sensor:      s.registry.names[e.SensorID],
			Temperature: e.Temperature,
		})
	}
	return out
}

func newerThan(cutoff time.Time) func(Entry) bool {
	return func(e Entry) bool { return !e.Timestamp.Before(cutoff) }
}

// CurrentValues returns the latest stored temperature per sensor no older
// than maxAge. A non-positive maxAge disables the age filter.
func (s *Store) CurrentValues(maxAge time.Duration) map[string]float64 {
	state := s.CurrentState(maxAge)
	out := make(map[string]float64, len(state))
	for name, c := range state {
		out[name] = c.Temperature
	}
	return out
}

// CurrentState is CurrentValues with timestamps and ages.
func (s *Store) CurrentState(maxAge time.Duration) map[string]CurrentReading {
	now := s.now()
	var keep func(Entry) bool
	if maxAge > 0 {
		keep = newerThan(now.Add(-maxAge))
	}

	s.mu.RLock()
	samples := s.samplesLocked(keep)
	s.mu.RUnlock()

	out := make(map[string]CurrentReading)
	for _, smp := range samples {
		if prev, ok := out[smp.Sensor]; ok && smp.Timestamp.Before(prev.Timestamp) {
			continue
		}
		out[smp.Sensor] = CurrentReading{
			Temperature: smp.Temperature,
			Timestamp:   smp.Timestamp,
			AgeMinutes:  ageMinutes(now, smp.Timestamp),
		}
	}
	return out
}

// History returns up to maxCount of the most recent records for name, oldest
// first. Unknown sensors yield an empty slice.
func (s *Store) History(name string, maxCount int) []Point {
	s.mu.RLock()
	id, ok := s.registry.LookupID(name)
	if !ok {
		s.mu.RUnlock()
		return []Point{}
	}
	samples := s.samplesLocked(func(e Entry) bool { return e.SensorID == id })
	s.mu.RUnlock()

	sortSamples(samples)
	if maxCount > 0 && len(samples) > maxCount {
		samples = samples[len(samples)-maxCount:]
	}
	out := make([]Point, len(samples))
	for i, smp := range samples {
		out[i] = Point{Timestamp: smp.Timestamp, Temperature: smp.Temperature}
	}
	return out
}

// RecordsBySensor groups the records of the last window by sensor.
func (s *Store) RecordsBySensor(window time.Duration) map[string][]Point {
	now := s.now()
	s.mu.RLock()
	samples := s.samplesLocked(newerThan(now.Add(-window)))
	s.mu.RUnlock()

	sortSamples(samples)
	out := make(map[string][]Point)
	for _, smp := range samples {
		out[smp.Sensor] = append(out[smp.Sensor], Point{Timestamp: smp.Timestamp, Temperature: smp.Temperature})
	}
	return out
}

// RecentReadings returns the count most recent records across all sensors.
func (s *Store) RecentReadings(count int) []Sample {
	s.mu.RLock()
	samples := s.samplesLocked(nil)
	s.mu.RUnlock()

	sortSamples(samples)
	if count > 0 && len(samples) > count {
		samples = samples[len(samples)-count:]
	}
	return samples
}

// ReadingsSince returns every record stamped after since, oldest first.
func (s *Store) ReadingsSince(since time.Time) []Sample {
	s.mu.RLock()
	samples := s.samplesLocked(func(e Entry) bool { return e.Timestamp.After(since) })
	s.mu.RUnlock()

	sortSamples(samples)
	return samples
}

// DailySummary computes count, min, max, avg and latest per sensor over the
// last window.
func (s *Store) DailySummary(window time.Duration) map[string]Summary {
	now := s.now()
	out := make(map[string]Summary)
	for name, points := range s.RecordsBySensor(window) {
		if len(points) == 0 {
			continue
		}
		sum := Summary{
			Count: len(points),
			Min:   math.Inf(1),
			Max:   math.Inf(-1),
			Hours: window.Hours(),
		}
		total := 0.0
		for _, p := range points {
			sum.Min = math.Min(sum.Min, p.Temperature)
			sum.Max = math.Max(sum.Max, p.Temperature)
			total += p.Temperature
		}
		last := points[len(points)-1]
		sum.Avg = round(total/float64(len(points)), 2)
		sum.Latest = last.Temperature
		sum.LatestAt = last.Timestamp
		sum.LatestAgeMinutes = ageMinutes(now, last.Timestamp)
		out[name] = sum
	}
	return out
}

// SensorStats aggregates one sensor over the last window. ok is false when
// there is nothing to aggregate.
func (s *Store) SensorStats(name string, window time.Duration) (SensorStats, bool) {
	cutoff := s.now().Add(-window)
	var temps []float64
	for _, p := range s.History(name, 0) {
		if !p.Timestamp.Before(cutoff) {
			temps = append(temps, p.Temperature)
		}
	}
	if len(temps) == 0 {
		return SensorStats{}, false
	}
	st := SensorStats{Sensor: name, Count: len(temps), Min: temps[0], Max: temps[0], Hours: window.Hours()}
	total := 0.0
	for _, t := range temps {
		st.Min = math.Min(st.Min, t)
		st.Max = math.Max(st.Max, t)
		total += t
	}
	st.Avg = total / float64(len(temps))
	return st, true
}

// Detail returns the latest detail snapshot for name.
func (s *Store) Detail(name string) (Snapshot, bool) {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.registry.LookupID(name)
	if !ok {
		return Snapshot{}, false
	}
	snap, ok := s.details.get(id)
	if !ok {
		return Snapshot{}, false
	}
	snap.AgeMinutes = ageMinutes(now, snap.UpdatedAt)
	return snap, true
}

// Details returns every detail snapshot no older than maxAge, keyed by sensor
// name. A non-positive maxAge returns all of them.
func (s *Store) Details(maxAge time.Duration) map[string]Snapshot {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Snapshot)
	for i, name := range s.registry.names {
		snap, ok := s.details.get(SensorID(i))
		if !ok {
			continue
		}
		age := now.Sub(snap.UpdatedAt)
		if maxAge > 0 && age > maxAge {
			continue
		}
		snap.AgeMinutes = ageMinutes(now, snap.UpdatedAt)
		out[name] = snap
	}
	return out
}

// Status returns the combined status for name, or false if the sensor has
// neither a detail snapshot nor history in the last 24 hours.
func (s *Store) Status(name string) (SensorStatus, bool) {
	st := SensorStatus{Sensor: name}
	if snap, ok := s.Detail(name); ok {
		st.HasDetail = true
		st.Detail = &snap
	}
	if stats, ok := s.SensorStats(name, 24*time.Hour); ok {
		st.HasHistory = true
		st.DailyStats = &stats
	}
	if !st.HasDetail && !st.HasHistory {
		return SensorStatus{}, false
	}
	if d, ok := s.TimeSinceLastStorage(name); ok {
		secs := d.Seconds()
		st.SinceStorage = &secs
		st.ReadyForStore = d >= s.opts.MinInterval
	} else {
		st.ReadyForStore = true
	}
	return st, true
}

// sortSamples orders by timestamp keeping scan order for ties.
func sortSamples(samples []Sample) {
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
}

func ageMinutes(now, t time.Time) float64 {
	return round(now.Sub(t).Minutes(), 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
