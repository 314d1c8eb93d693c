package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// SnapshotFileName is the name of the snapshot file
	SnapshotFileName = "snapshot.json"
)

// fileSnapshotStore implements SnapshotStore using the local filesystem
type fileSnapshotStore[T any] struct {
	basePath string
	resource string
}

// NewFileSnapshotStore creates a file-backed snapshot store. basePath is the
// base directory under which a per-resource snapshot file is kept.
func NewFileSnapshotStore[T any](basePath, resource string) SnapshotStore[T] {
	return &fileSnapshotStore[T]{
		basePath: basePath,
		resource: resource,
	}
}

// Save writes the snapshot to a JSON file in a resource-specific directory.
// The write goes to a temporary file first and is renamed into place so a
// crash mid-write never leaves a torn snapshot behind.
func (f *fileSnapshotStore[T]) Save(_ context.Context, snap *Snapshot[T]) error {
	resourceDir := filepath.Join(f.basePath, f.resource)
	if err := os.MkdirAll(resourceDir, 0750); err != nil {
		return fmt.Errorf("failed to create snapshot directory for resource '%s': %w", f.resource, err)
	}

	filePath := filepath.Join(resourceDir, SnapshotFileName)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for resource '%s': %w", f.resource, err)
	}

	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary snapshot file for resource '%s': %w", f.resource, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename snapshot file for resource '%s': %w", f.resource, err)
	}

	return nil
}

// Load reads the snapshot from disk. Returns (nil, nil) if no snapshot file
// exists, which is the normal state on first run.
func (f *fileSnapshotStore[T]) Load(_ context.Context) (*Snapshot[T], error) {
	filePath := filepath.Join(f.basePath, f.resource, SnapshotFileName)

	// #nosec G304 -- filePath is constructed from trusted internal sources (basePath + resource name)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot file for resource '%s': %w", f.resource, err)
	}

	var snap Snapshot[T]
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot for resource '%s': %w", f.resource, err)
	}

	return &snap, nil
}
