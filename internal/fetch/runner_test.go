package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/GaiaEyesHQ/featurefetch/internal/backend/mocks"
	"github.com/GaiaEyesHQ/featurefetch/internal/cache"
)

type runnerPayload struct {
	Value string `json:"value"`
}

func TestRunnerTickInterval(t *testing.T) {
	t.Parallel()

	noJitter := NewRunner[runnerPayload](nil, time.Minute, 0)
	assert.Equal(t, time.Minute, noJitter.tickInterval())

	jittered := NewRunner[runnerPayload](nil, time.Minute, 10*time.Second)
	for range 100 {
		d := jittered.tickInterval()
		assert.GreaterOrEqual(t, d, 50*time.Second)
		assert.Less(t, d, 70*time.Second)
	}
}

func TestRunnerStartPerformsInitialLoadAndStops(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	probe := mocks.NewMockReachabilityProbe(ctrl)

	probe.EXPECT().IsReachable(gomock.Any()).Return(true).Times(1)
	client.EXPECT().Fetch(gomock.Any()).
		Return([]byte(`{"ok":true,"payload":{"value":"kp-7"},"source":"live"}`), nil).
		Times(1)

	applied := make(chan Result[runnerPayload], 1)
	coord := New[runnerPayload]("space-weather", client,
		cache.New[runnerPayload](cache.NewFileSnapshotStore[runnerPayload](t.TempDir(), "space-weather")),
		probe,
		WithOnResult[runnerPayload](func(r Result[runnerPayload]) { applied <- r }),
	)

	// Interval far beyond the test lifetime: only the initial load runs
	runner := NewRunner[runnerPayload](coord, time.Hour, 0)

	startErr := make(chan error, 1)
	go func() {
		startErr <- runner.Start(context.Background())
	}()

	select {
	case res := <-applied:
		assert.Equal(t, "kp-7", res.Payload.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("initial load did not complete")
	}

	require.NoError(t, runner.Stop())

	select {
	case err := <-startErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestRunnerNotifyUploadCompleteIsDebounced(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	probe := mocks.NewMockReachabilityProbe(ctrl)

	probe.EXPECT().IsReachable(gomock.Any()).Return(true).Times(1)
	client.EXPECT().Fetch(gomock.Any()).
		Return([]byte(`{"ok":true,"payload":{"value":"kp-7"},"source":"live"}`), nil).
		Times(1)

	coord := New[runnerPayload]("space-weather", client,
		cache.New[runnerPayload](cache.NewFileSnapshotStore[runnerPayload](t.TempDir(), "space-weather")),
		probe,
	)
	runner := NewRunner[runnerPayload](coord, time.Hour, 0)

	ctx := context.Background()
	coord.Refresh(ctx, TriggerInitial)

	// Within the debounce window of the attempt above, so this upload
	// notification is absorbed rather than fetched.
	runner.NotifyUploadComplete(ctx)
}
