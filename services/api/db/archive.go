package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thermolog/thermolog/services/api/archive"
	"github.com/thermolog/thermolog/services/api/templog"
)

// Name implements archive.Sink.
func (s *Store) Name() string { return "postgres" }

// Write implements archive.Sink: the run row, sensor rows and readings are
// written in one transaction.
func (s *Store) Write(ctx context.Context, b archive.Batch) (err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `INSERT INTO thermolog.archive_runs (id, started_at, since_ts, status)
VALUES ($1,$2,$3,'running')`, b.RunID, b.At, nullTime(b.Since)); err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	if err = upsertSensors(ctx, tx, b); err != nil {
		return fmt.Errorf("upsert sensors: %w", err)
	}
	if err = insertReadings(ctx, tx, b.RunID, b.Readings); err != nil {
		return fmt.Errorf("insert readings: %w", err)
	}

	if _, err = tx.Exec(ctx, `UPDATE thermolog.archive_runs
SET finished_at = NOW(), readings = $2, sensors = $3, status = 'done'
WHERE id = $1`, b.RunID, len(b.Readings), len(b.Sensors)); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return tx.Commit(ctx)
}

// upsertSensors inserts/updates sensor rows, folding in the latest detail
// snapshot when one exists.
func upsertSensors(ctx context.Context, tx pgx.Tx, b archive.Batch) error {
	if len(b.Sensors) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `INSERT INTO thermolog.sensors (name, ring_id, humidity, battery, rssi, voltage, power, last_seen, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
ON CONFLICT (name) DO UPDATE
SET ring_id = EXCLUDED.ring_id,
    humidity = COALESCE(EXCLUDED.humidity, thermolog.sensors.humidity),
    battery = COALESCE(EXCLUDED.battery, thermolog.sensors.battery),
    rssi = COALESCE(EXCLUDED.rssi, thermolog.sensors.rssi),
    voltage = COALESCE(EXCLUDED.voltage, thermolog.sensors.voltage),
    power = COALESCE(EXCLUDED.power, thermolog.sensors.power),
    last_seen = COALESCE(EXCLUDED.last_seen, thermolog.sensors.last_seen),
    updated_at = NOW()`

	for _, ref := range b.Sensors {
		var (
			humidity, battery, voltage, power *float64
			rssi                              *int
			lastSeen                          *time.Time
		)
		if snap, ok := b.Details[ref.Name]; ok {
			humidity, battery, rssi, voltage, power = snap.Humidity, snap.Battery, snap.RSSI, snap.Voltage, snap.Power
			lastSeen = &snap.UpdatedAt
		}
		batch.Queue(query, ref.Name, int(ref.ID), humidity, battery, rssi, voltage, power, lastSeen)
	}

	res := tx.SendBatch(ctx, batch)
	defer res.Close()

	for range b.Sensors {
		if _, err := res.Exec(); err != nil {
			return err
		}
	}
	return res.Close()
}

// insertReadings writes ring entries; an overwritten record re-archived in a
// later run updates the stored temperature in place.
func insertReadings(ctx context.Context, tx pgx.Tx, runID uuid.UUID, readings []templog.Sample) error {
	if len(readings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `INSERT INTO thermolog.readings (sensor, ts, temperature, run_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,NOW(),NOW())
ON CONFLICT (sensor, ts) DO UPDATE
SET temperature = EXCLUDED.temperature,
    run_id = EXCLUDED.run_id,
    updated_at = NOW()`

	for _, r := range readings {
		batch.Queue(query, r.Sensor, r.Timestamp, r.Temperature, runID)
	}

	res := tx.SendBatch(ctx, batch)
	defer res.Close()

	for range readings {
		if _, err := res.Exec(); err != nil {
			return err
		}
	}
	return res.Close()
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
