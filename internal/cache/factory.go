package cache

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GaiaEyesHQ/featurefetch/internal/config"
)

// NewSnapshotStore creates a SnapshotStore based on the configured storage
// type.
//
// For file-based storage, it returns a store that writes a per-resource JSON
// snapshot under the configured base path.
//
// For database storage, it returns a PostgreSQL-backed store. The pool
// parameter must not be nil when database storage is configured.
func NewSnapshotStore[T any](cfg *config.Config, pool *pgxpool.Pool) (SnapshotStore[T], error) {
	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		if pool == nil {
			return nil, fmt.Errorf("database pool is required when storage type is database")
		}
		return NewPostgresSnapshotStore[T](pool, cfg.GetResourceName()), nil
	case config.StorageTypeFile:
		return NewFileSnapshotStore[T](cfg.GetSnapshotPath(), cfg.GetResourceName()), nil
	default:
		// Default to file-based storage for unknown types
		return NewFileSnapshotStore[T](cfg.GetSnapshotPath(), cfg.GetResourceName()), nil
	}
}
