package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgSnapshotStore implements SnapshotStore on PostgreSQL. One row per
// resource, replaced on every save.
type pgSnapshotStore[T any] struct {
	pool     *pgxpool.Pool
	resource string
}

// NewPostgresSnapshotStore creates a database-backed snapshot store
func NewPostgresSnapshotStore[T any](pool *pgxpool.Pool, resource string) SnapshotStore[T] {
	return &pgSnapshotStore[T]{
		pool:     pool,
		resource: resource,
	}
}

const upsertSnapshotQuery = `
INSERT INTO resource_snapshots (resource, payload, fetched_at, source, run_id, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (resource) DO UPDATE SET
    payload = EXCLUDED.payload,
    fetched_at = EXCLUDED.fetched_at,
    source = EXCLUDED.source,
    run_id = EXCLUDED.run_id,
    updated_at = EXCLUDED.updated_at`

const selectSnapshotQuery = `
SELECT payload, fetched_at, source, run_id
FROM resource_snapshots
WHERE resource = $1`

// Save upserts the snapshot row for this resource
func (p *pgSnapshotStore[T]) Save(ctx context.Context, snap *Snapshot[T]) error {
	payload, err := json.Marshal(snap.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot payload for resource '%s': %w", p.resource, err)
	}

	var runID *uuid.UUID
	if id, err := uuid.Parse(snap.RunID); err == nil {
		runID = &id
	}

	_, err = p.pool.Exec(ctx, upsertSnapshotQuery,
		p.resource, payload, snap.FetchedAt, snap.Source, runID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to persist snapshot for resource '%s': %w", p.resource, err)
	}

	return nil
}

// Load reads the snapshot row for this resource. Returns (nil, nil) when no
// row exists.
func (p *pgSnapshotStore[T]) Load(ctx context.Context) (*Snapshot[T], error) {
	var (
		payload   []byte
		fetchedAt time.Time
		source    string
		runID     *uuid.UUID
	)

	row := p.pool.QueryRow(ctx, selectSnapshotQuery, p.resource)
	if err := row.Scan(&payload, &fetchedAt, &source, &runID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot for resource '%s': %w", p.resource, err)
	}

	snap := Snapshot[T]{
		FetchedAt: fetchedAt,
		Source:    source,
	}
	if runID != nil {
		snap.RunID = runID.String()
	}
	if err := json.Unmarshal(payload, &snap.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot payload for resource '%s': %w", p.resource, err)
	}

	return &snap, nil
}
