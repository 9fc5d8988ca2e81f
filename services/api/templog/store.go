// Package templog implements a fixed-memory temperature history for a bounded
// set of sensors. Readings are packed into 5-byte records inside a ring buffer,
// and at most one record per sensor is kept per minimum interval: readings that
// arrive sooner overwrite that sensor's latest record instead of appending.
package templog

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxReadings = 2880
	DefaultMaxSensors  = 256
	DefaultMinInterval = 5 * time.Minute
)

// Options sizes the store. Zero values fall back to the defaults above.
type Options struct {
	MaxReadings   int
	MaxSensors    int
	MinInterval   time.Duration
	SearchLimit   int
	PurgeOnRebase bool
}

func (o Options) withDefaults() Options {
	if o.MaxReadings == 0 {
		o.MaxReadings = DefaultMaxReadings
	}
	if o.MaxSensors == 0 {
		o.MaxSensors = DefaultMaxSensors
	}
	if o.MinInterval == 0 {
		o.MinInterval = DefaultMinInterval
	}
	if o.SearchLimit == 0 {
		o.SearchLimit = DefaultSearchLimit
	}
	return o
}

// Validate checks the sizing limits.
func (o Options) Validate() error {
	if o.MaxReadings <= 0 {
		return fmt.Errorf("max readings must be positive, got %d", o.MaxReadings)
	}
	if o.MaxSensors <= 0 || o.MaxSensors > DefaultMaxSensors {
		return fmt.Errorf("max sensors must be within 1..%d, got %d", DefaultMaxSensors, o.MaxSensors)
	}
	if o.MinInterval < time.Minute {
		return fmt.Errorf("min interval must be at least 1m, got %s", o.MinInterval)
	}
	if o.SearchLimit < 0 {
		return fmt.Errorf("search limit must not be negative, got %d", o.SearchLimit)
	}
	return nil
}

// Action describes what the admission policy did with a reading.
type Action string

const (
	ActionAppended    Action = "appended"
	ActionOverwritten Action = "overwritten"
	ActionFallback    Action = "fallback_appended"
)

// Outcome is returned by Record.
type Outcome struct {
	SensorID  SensorID `json:"sensor_id"`
	Action    Action   `json:"action"`
	NewSensor bool     `json:"new_sensor"`
}

// Counters track ingestion totals since the store was created.
type Counters struct {
	Received    uint64 `json:"received"`
	Appended    uint64 `json:"appended"`
	Overwritten uint64 `json:"overwritten"`
	Rejected    uint64 `json:"rejected"`
	Evicted     uint64 `json:"evicted"`
	Rebases     uint64 `json:"rebases"`
}

// Store owns the registry, ring, admission state and detail table. One
// RWMutex guards all of them; queries never mutate.
type Store struct {
	mu sync.RWMutex

	opts     Options
	registry *Registry
	ring     *Ring
	details  *detailTable

	lastStored []time.Time
	lastPos    []int
	counters   Counters
	created    time.Time

	now func() time.Time
	log *zap.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New allocates every buffer up front; memory does not grow afterwards apart
// from the name map.
func New(opts Options, options ...Option) (*Store, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		opts: opts,
		now:  time.Now,
		log:  zap.NewNop(),
	}
	for _, o := range options {
		o(s)
	}

	s.created = s.now()
	s.registry = NewRegistry(opts.MaxSensors)
	s.ring = NewRing(opts.MaxReadings, s.created, opts.SearchLimit)
	s.details = newDetailTable(opts.MaxSensors)
	s.lastStored = make([]time.Time, opts.MaxSensors)
	s.lastPos = make([]int, opts.MaxSensors)
	s.resetPositions()

	s.log.Info("ring buffer initialized",
		zap.Int("max_readings", opts.MaxReadings),
		zap.Int("bytes", s.ring.Bytes()),
		zap.Int("max_sensors", opts.MaxSensors),
		zap.Duration("min_interval", opts.MinInterval),
	)
	return s, nil
}

// Options returns the effective sizing.
func (s *Store) Options() Options { return s.opts }

// Record ingests one reading: the ring is appended to or the sensor's latest
// record is overwritten, and the detail snapshot is always replaced.
func (s *Store) Record(r Reading) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	s.counters.Received++
	id, created, err := s.registry.GetOrCreateID(r.Sensor)
	if err != nil {
		s.counters.Rejected++
		s.log.Warn("reading rejected", zap.String("sensor", r.Sensor), zap.Error(err))
		return Outcome{}, err
	}
	if created {
		s.log.Info("new sensor registered", zap.String("sensor", r.Sensor), zap.Uint8("id", uint8(id)))
	}

	out := Outcome{SensorID: id, NewSensor: created}
	scaled := ScaleTemperature(r.Temperature)

	last := s.lastStored[id]
	switch {
	case last.IsZero() || now.Sub(last) >= s.opts.MinInterval:
		s.appendLocked(id, scaled, now)
		out.Action = ActionAppended
	case s.overwriteLocked(id, scaled):
		s.counters.Overwritten++
		out.Action = ActionOverwritten
	default:
		s.appendLocked(id, scaled, now)
		out.Action = ActionFallback
	}

	s.details.update(id, r, now)
	return out, nil
}

func (s *Store) appendLocked(id SensorID, scaled int16, now time.Time) {
	minutes, ok := relativeMinutes(s.ring.Epoch(), now)
	if !ok {
		s.rebaseLocked(now)
		minutes = 0
	}
	if s.ring.Full() {
		s.counters.Evicted++
	}
	pos := s.ring.Append(Record{Minutes: minutes, SensorID: id, Scaled: scaled})
	s.lastPos[id] = pos
	s.lastStored[id] = now
	s.counters.Appended++
}

func (s *Store) overwriteLocked(id SensorID, scaled int16) bool {
	if s.ring.OverwriteAt(s.lastPos[id], id, scaled) {
		return true
	}
	pos := s.ring.OverwriteLatestFor(id, scaled)
	if pos < 0 {
		return false
	}
	s.lastPos[id] = pos
	return true
}

func (s *Store) rebaseLocked(now time.Time) {
	s.counters.Rebases++
	fields := []zap.Field{
		zap.Time("old_epoch", s.ring.Epoch()),
		zap.Time("new_epoch", now),
		zap.Int("records", s.ring.Len()),
		zap.Bool("purged", s.opts.PurgeOnRebase),
	}
	s.ring.RebaseEpoch(now)
	if s.opts.PurgeOnRebase {
		s.ring.Clear()
		s.resetPositions()
	}
	s.log.Warn("time reference reset, 16-bit minute offset exhausted", fields...)
}

func (s *Store) resetPositions() {
	for i := range s.lastPos {
		s.lastPos[i] = -1
	}
}

// ClearAll drops every reading and detail snapshot but keeps registrations.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.log.Info("all readings cleared")
}

func (s *Store) clearLocked() {
	s.ring.Clear()
	clear(s.lastStored)
	s.resetPositions()
	s.details.reset()
}

// ResetSensors clears all data and forgets every sensor.
func (s *Store) ResetSensors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.registry.Reset()
	s.log.Info("all data and sensor registrations cleared")
}

// ForceNewReading makes the next reading from name append a new record.
func (s *Store) ForceNewReading(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.registry.LookupID(name)
	if !ok {
		return false
	}
	s.lastStored[id] = time.Time{}
	return true
}

// TimeSinceLastStorage reports how long ago a record was last admitted for
// name. ok is false if the sensor is unknown or nothing has been stored.
func (s *Store) TimeSinceLastStorage(name string) (d time.Duration, ok bool) {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, found := s.registry.LookupID(name)
	if !found || s.lastStored[id].IsZero() {
		return 0, false
	}
	return now.Sub(s.lastStored[id]), true
}

// SensorsReady lists sensors whose next reading would be appended.
func (s *Store) SensorsReady() []string {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	ready := make([]string, 0, s.registry.Len())
	for i, name := range s.registry.names {
		last := s.lastStored[i]
		if last.IsZero() || now.Sub(last) >= s.opts.MinInterval {
			ready = append(ready, name)
		}
	}
	return ready
}

// SensorNames returns every registered sensor in id order.
func (s *Store) SensorNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Names()
}

// SensorExists reports whether name has been registered.
func (s *Store) SensorExists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.registry.LookupID(name)
	return ok
}

// SensorID returns the id assigned to name.
func (s *Store) SensorID(name string) (SensorID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.LookupID(name)
}
