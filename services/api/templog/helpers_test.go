package templog

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T, opts Options) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s, err := New(opts, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, clock
}

func mustRecord(t *testing.T, s *Store, name string, temp float64) Outcome {
	t.Helper()
	out, err := s.Record(Reading{Sensor: name, Temperature: temp})
	if err != nil {
		t.Fatalf("Record(%s): %v", name, err)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
