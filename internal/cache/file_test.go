package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GaiaEyesHQ/featurefetch/internal/cache"
)

type testPayload struct {
	Value string `json:"value"`
}

func TestFileSnapshotStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	store := cache.NewFileSnapshotStore[testPayload](tempDir, "space-weather")
	ctx := context.Background()

	fetchedAt := time.Now().UTC().Truncate(time.Second)
	snap := &cache.Snapshot[testPayload]{
		Payload:   testPayload{Value: "kp-index-7"},
		FetchedAt: fetchedAt,
		Source:    "live",
		RunID:     "f47ac10b-58cc-4372-a567-0e02b2c3d479",
	}

	require.NoError(t, store.Save(ctx, snap))

	// Snapshot lands in a per-resource directory
	_, err := os.Stat(filepath.Join(tempDir, "space-weather", cache.SnapshotFileName))
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, snap.Payload, loaded.Payload)
	assert.True(t, fetchedAt.Equal(loaded.FetchedAt))
	assert.Equal(t, snap.Source, loaded.Source)
	assert.Equal(t, snap.RunID, loaded.RunID)
}

func TestFileSnapshotStore_LoadMissing(t *testing.T) {
	t.Parallel()

	store := cache.NewFileSnapshotStore[testPayload](t.TempDir(), "space-weather")

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap, "missing snapshot should be (nil, nil), not an error")
}

func TestFileSnapshotStore_LoadCorrupt(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	resourceDir := filepath.Join(tempDir, "space-weather")
	require.NoError(t, os.MkdirAll(resourceDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(resourceDir, cache.SnapshotFileName), []byte("{torn"), 0600))

	store := cache.NewFileSnapshotStore[testPayload](tempDir, "space-weather")

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}

func TestFileSnapshotStore_SaveOverwrites(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	store := cache.NewFileSnapshotStore[testPayload](tempDir, "space-weather")
	ctx := context.Background()

	first := &cache.Snapshot[testPayload]{Payload: testPayload{Value: "old"}, FetchedAt: time.Now()}
	second := &cache.Snapshot[testPayload]{Payload: testPayload{Value: "new"}, FetchedAt: time.Now()}

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "new", loaded.Payload.Value)

	// No temporary file left behind
	entries, err := os.ReadDir(filepath.Join(tempDir, "space-weather"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, cache.SnapshotFileName, entries[0].Name())
}
