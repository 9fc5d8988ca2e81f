// Package archive periodically copies ring contents to external sinks so
// history outlives the fixed-size buffer.
package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thermolog/thermolog/services/api/templog"
)

// SensorRef names a registered sensor and its ring id.
type SensorRef struct {
	Name string
	ID   templog.SensorID
}

// Batch is what one archive pass hands to every sink.
type Batch struct {
	RunID    uuid.UUID
	At       time.Time
	Since    time.Time
	Readings []templog.Sample
	Details  map[string]templog.Snapshot
	Sensors  []SensorRef
}

// Sink receives archive batches.
type Sink interface {
	Name() string
	Write(ctx context.Context, b Batch) error
}

// Source is the subset of the store the archiver reads.
type Source interface {
	ReadingsSince(since time.Time) []templog.Sample
	Details(maxAge time.Duration) map[string]templog.Snapshot
	SensorNames() []string
	SensorID(name string) (templog.SensorID, bool)
}

// Archiver exports new ring entries on a fixed interval.
type Archiver struct {
	src      Source
	sinks    []Sink
	interval time.Duration
	overlap  time.Duration
	log      *zap.Logger
	now      func() time.Time

	last time.Time
}

// New creates an archiver. overlap widens every pass backwards so records
// overwritten after they were archived are exported again; pass the store's
// minimum interval.
func New(src Source, interval, overlap time.Duration, log *zap.Logger, sinks ...Sink) *Archiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archiver{
		src:      src,
		sinks:    sinks,
		interval: interval,
		overlap:  overlap,
		log:      log,
		now:      time.Now,
	}
}

// Run flushes every interval until ctx is cancelled, then flushes once more.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.log.Info("archiver started", zap.Duration("interval", a.interval), zap.Int("sinks", len(a.sinks)))
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := a.Flush(flushCtx); err != nil {
				a.log.Error("final archive flush failed", zap.Error(err))
			}
			return nil
		case <-ticker.C:
			if _, err := a.Flush(ctx); err != nil {
				a.log.Error("archive flush failed", zap.Error(err))
			}
		}
	}
}

// Flush builds one batch and writes it to every sink. The high-water mark
// only advances when all sinks succeed.
func (a *Archiver) Flush(ctx context.Context) (Batch, error) {
	at := a.now().UTC()
	since := time.Time{}
	if !a.last.IsZero() {
		// ring timestamps are truncated to the minute, so a record admitted up
		// to 59s before the overlap window still carries an older stamp
		since = a.last.Add(-a.overlap - time.Minute)
	}

	b := Batch{
		RunID:    uuid.New(),
		At:       at,
		Since:    since,
		Readings: a.src.ReadingsSince(since),
		Details:  a.src.Details(0),
	}
	for _, name := range a.src.SensorNames() {
		if id, ok := a.src.SensorID(name); ok {
			b.Sensors = append(b.Sensors, SensorRef{Name: name, ID: id})
		}
	}

	if len(b.Readings) == 0 && len(b.Details) == 0 {
		a.last = at
		return b, nil
	}

	var errs []error
	for _, sink := range a.sinks {
		if err := sink.Write(ctx, b); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		a.log.Debug("archive batch written",
			zap.String("sink", sink.Name()),
			zap.Stringer("run_id", b.RunID),
			zap.Int("readings", len(b.Readings)))
	}
	if len(errs) > 0 {
		return b, errors.Join(errs...)
	}

	a.last = at
	a.log.Info("archive run complete",
		zap.Stringer("run_id", b.RunID),
		zap.Int("readings", len(b.Readings)),
		zap.Int("sensors", len(b.Sensors)))
	return b, nil
}
