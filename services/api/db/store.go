package db

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps database access helpers for the long-term archive.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS thermolog;

CREATE TABLE IF NOT EXISTS thermolog.sensors (
    name        TEXT PRIMARY KEY,
    ring_id     SMALLINT NOT NULL,
    humidity    DOUBLE PRECISION,
    battery     DOUBLE PRECISION,
    rssi        INTEGER,
    voltage     DOUBLE PRECISION,
    power       DOUBLE PRECISION,
    last_seen   TIMESTAMPTZ,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS thermolog.archive_runs (
    id           UUID PRIMARY KEY,
    started_at   TIMESTAMPTZ NOT NULL,
    finished_at  TIMESTAMPTZ,
    since_ts     TIMESTAMPTZ,
    readings     INTEGER NOT NULL DEFAULT 0,
    sensors      INTEGER NOT NULL DEFAULT 0,
    status       TEXT NOT NULL,
    error_msg    TEXT
);

CREATE TABLE IF NOT EXISTS thermolog.readings (
    sensor       TEXT NOT NULL REFERENCES thermolog.sensors(name),
    ts           TIMESTAMPTZ NOT NULL,
    temperature  DOUBLE PRECISION NOT NULL,
    run_id       UUID REFERENCES thermolog.archive_runs(id),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (sensor, ts)
);
`

// EnsureSchema creates the archive tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// Sensor is an archived sensor row.
type Sensor struct {
	Name      string     `json:"name"`
	RingID    int        `json:"ring_id"`
	Humidity  *float64   `json:"humidity,omitempty"`
	Battery   *float64   `json:"battery,omitempty"`
	RSSI      *int       `json:"rssi,omitempty"`
	Voltage   *float64   `json:"voltage,omitempty"`
	Power     *float64   `json:"power,omitempty"`
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

const listSensorsSQL = `
    SELECT name, ring_id, humidity, battery, rssi, voltage, power, last_seen, created_at, updated_at
    FROM thermolog.sensors
    ORDER BY name
`

// ListSensors returns every archived sensor.
func (s *Store) ListSensors(ctx context.Context) ([]Sensor, error) {
	rows, err := s.pool.Query(ctx, listSensorsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sensors := make([]Sensor, 0)
	for rows.Next() {
		var sensor Sensor
		if err := rows.Scan(
			&sensor.Name,
			&sensor.RingID,
			&sensor.Humidity,
			&sensor.Battery,
			&sensor.RSSI,
			&sensor.Voltage,
			&sensor.Power,
			&sensor.LastSeen,
			&sensor.CreatedAt,
			&sensor.UpdatedAt,
		); err != nil {
			return nil, err
		}
		sensors = append(sensors, sensor)
	}
	return sensors, rows.Err()
}

// Reading is one archived temperature.
type Reading struct {
	Sensor      string     `json:"sensor"`
	Timestamp   time.Time  `json:"timestamp"`
	Temperature float64    `json:"temperature"`
	RunID       *uuid.UUID `json:"run_id,omitempty"`
}

// ReadingQuery filters FetchReadings.
type ReadingQuery struct {
	Sensor string
	Limit  int
	Since  *time.Time
	Until  *time.Time
}

const readingsBase = `
    SELECT sensor, ts, temperature, run_id
    FROM thermolog.readings
    WHERE sensor = $1
`

// buildReadingsQuery assembles the SQL and arguments for q. A limit keeps the
// newest rows, still returned oldest first.
func buildReadingsQuery(q ReadingQuery) (string, []any) {
	args := []any{q.Sensor}
	clause := ""
	argPos := 2
	if q.Since != nil {
		clause += " AND ts >= $" + strconv.Itoa(argPos)
		args = append(args, *q.Since)
		argPos++
	}
	if q.Until != nil {
		clause += " AND ts <= $" + strconv.Itoa(argPos)
		args = append(args, *q.Until)
		argPos++
	}
	if q.Limit <= 0 {
		return readingsBase + clause + " ORDER BY ts", args
	}

	args = append(args, q.Limit)
	sql := "SELECT sensor, ts, temperature, run_id FROM (" +
		readingsBase + clause + " ORDER BY ts DESC LIMIT $" + strconv.Itoa(argPos) +
		") newest ORDER BY ts"
	return sql, args
}

// FetchReadings returns archived readings for a sensor, oldest first.
func (s *Store) FetchReadings(ctx context.Context, q ReadingQuery) ([]Reading, error) {
	sql, args := buildReadingsQuery(q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make([]Reading, 0)
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.Sensor, &r.Timestamp, &r.Temperature, &r.RunID); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// Run is one archive pass.
type Run struct {
	ID         uuid.UUID  `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Since      *time.Time `json:"since,omitempty"`
	Readings   int        `json:"readings"`
	Sensors    int        `json:"sensors"`
	Status     string     `json:"status"`
	ErrorMsg   *string    `json:"error_msg,omitempty"`
}

const listRunsSQL = `
    SELECT id, started_at, finished_at, since_ts, readings, sensors, status, error_msg
    FROM thermolog.archive_runs
    ORDER BY started_at DESC
    LIMIT $1
`

// ListRuns returns the most recent archive runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.pool.Query(ctx, listRunsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Since, &r.Readings, &r.Sensors, &r.Status, &r.ErrorMsg); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
