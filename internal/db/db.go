package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/02loveslollipop/iss-ears/internal/models"
)

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS iss_ears;
CREATE TABLE IF NOT EXISTS iss_ears.dispatch_events (
    id         BIGSERIAL PRIMARY KEY,
    ts         TIMESTAMPTZ NOT NULL,
    lat        DOUBLE PRECISION NOT NULL,
    lon        DOUBLE PRECISION NOT NULL,
    target     TEXT NOT NULL,
    payload    TEXT NOT NULL,
    response   TEXT,
    error      TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS dispatch_events_ts_idx ON iss_ears.dispatch_events (ts DESC);`

const insertDispatchSQL = `INSERT INTO iss_ears.dispatch_events (ts, lat, lon, target, payload, response, error)
VALUES ($1,$2,$3,$4,$5,$6,$7)`

// Recorder stores dispatch attempts in Postgres.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder connects to databaseURL and ensures the audit table exists.
func NewRecorder(ctx context.Context, databaseURL string) (*Recorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Recorder{pool: pool}, nil
}

// EnsureSchema creates the dispatch audit table when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// RecordDispatch writes one dispatch attempt.
func (r *Recorder) RecordDispatch(ctx context.Context, rec models.DispatchRecord) error {
	_, err := r.pool.Exec(ctx, insertDispatchSQL,
		rec.TS, rec.Latitude, rec.Longitude, rec.Target, rec.Payload, rec.Response, rec.Error)
	if err != nil {
		return fmt.Errorf("insert dispatch event: %w", err)
	}
	return nil
}

// Close releases the pool resources.
func (r *Recorder) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}
