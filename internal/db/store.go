package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/02loveslollipop/iss-ears/internal/models"
)

// Store wraps read access to the dispatch audit table.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool and ensures the audit table
// exists, so a fresh database answers with an empty history.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Recorder returns a Recorder sharing the store's pool.
func (s *Store) Recorder() *Recorder {
	return &Recorder{pool: s.pool}
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// DispatchQuery holds filters for retrieving dispatch events.
type DispatchQuery struct {
	Limit int
	Since *time.Time
	Until *time.Time
}

const dispatchesBase = `SELECT id, ts, lat, lon, target, payload, response, error FROM iss_ears.dispatch_events WHERE TRUE`

// buildDispatchQuery numbers placeholders in the order Since, Until, Limit,
// skipping the filters that are unset.
func buildDispatchQuery(q DispatchQuery) (string, []any) {
	sql := dispatchesBase
	args := []any{}
	if q.Since != nil {
		args = append(args, *q.Since)
		sql += " AND ts >= $" + strconv.Itoa(len(args))
	}
	if q.Until != nil {
		args = append(args, *q.Until)
		sql += " AND ts <= $" + strconv.Itoa(len(args))
	}
	sql += " ORDER BY ts DESC"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += " LIMIT $" + strconv.Itoa(len(args))
	}
	return sql, args
}

// RecentDispatches returns dispatch events, newest first.
func (s *Store) RecentDispatches(ctx context.Context, q DispatchQuery) ([]models.DispatchRecord, error) {
	sql, args := buildDispatchQuery(q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.DispatchRecord, 0)
	for rows.Next() {
		var r models.DispatchRecord
		if err := rows.Scan(
			&r.ID,
			&r.TS,
			&r.Latitude,
			&r.Longitude,
			&r.Target,
			&r.Payload,
			&r.Response,
			&r.Error,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
