// Package cache holds the most recent successfully-applied payload for a
// polled resource in two tiers: a process-lifetime last-known value and a
// durable snapshot that survives process restarts.
package cache

import (
	"context"
	"sync"
	"time"
)

// Snapshot is a cached payload plus the metadata needed to report its age
// and provenance after a restart.
type Snapshot[T any] struct {
	Payload   T         `json:"payload"`
	FetchedAt time.Time `json:"fetchedAt"`
	Source    string    `json:"source,omitempty"`
	RunID     string    `json:"runId,omitempty"`
}

// SnapshotStore is the durable snapshot tier.
//
//go:generate mockgen -destination=mocks/mock_snapshot_store.go -package=mocks -source=store.go SnapshotStore
type SnapshotStore[T any] interface {
	// Load returns the persisted snapshot, or (nil, nil) when none exists
	Load(ctx context.Context) (*Snapshot[T], error)

	// Save replaces the persisted snapshot
	Save(ctx context.Context, snap *Snapshot[T]) error
}

// Store is the two-tier cache. The in-memory tier is cleared on process
// restart; the durable tier survives it. Reads prefer the in-memory tier.
type Store[T any] struct {
	durable SnapshotStore[T]

	mu        sync.RWMutex
	lastKnown *Snapshot[T]
}

// New creates a two-tier store over the given durable backend
func New[T any](durable SnapshotStore[T]) *Store[T] {
	return &Store[T]{durable: durable}
}

// LastKnown returns the in-memory tier, or nil when nothing has been applied
// in this process lifetime.
func (s *Store[T]) LastKnown() *Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastKnown
}

// Lookup returns the best available cached snapshot: the in-memory
// last-known value first, then the persisted snapshot. (nil, nil) means no
// cache exists in either tier.
func (s *Store[T]) Lookup(ctx context.Context) (*Snapshot[T], error) {
	if snap := s.LastKnown(); snap != nil {
		return snap, nil
	}
	return s.durable.Load(ctx)
}

// Put applies a freshly fetched payload to both tiers
func (s *Store[T]) Put(ctx context.Context, snap *Snapshot[T]) error {
	s.mu.Lock()
	s.lastKnown = snap
	s.mu.Unlock()
	return s.durable.Save(ctx, snap)
}

// Promote installs a snapshot into the in-memory tier only. Used when a
// cache fallback re-applies a value that already came from this store.
func (s *Store[T]) Promote(snap *Snapshot[T]) {
	s.mu.Lock()
	s.lastKnown = snap
	s.mu.Unlock()
}
