package fetch

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Runner drives a coordinator from a jittered ticker and forwards
// upload-completion notifications. One runner per polled resource.
type Runner[T any] struct {
	coord    *Coordinator[T]
	interval time.Duration
	jitter   time.Duration

	// Lifecycle management
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// NewRunner creates a runner that fires refresh triggers every interval,
// offset by a random jitter of up to ±jitter.
func NewRunner[T any](coord *Coordinator[T], interval, jitter time.Duration) *Runner[T] {
	return &Runner[T]{
		coord:    coord,
		interval: interval,
		jitter:   jitter,
		done:     make(chan struct{}),
	}
}

// tickInterval returns the base interval with a random jitter applied so
// many client instances do not poll the backend simultaneously.
func (r *Runner[T]) tickInterval() time.Duration {
	if r.jitter <= 0 {
		return r.interval
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	offset := time.Duration(rand.Int64N(int64(2*r.jitter))) - r.jitter
	return r.interval + offset
}

// Start begins the periodic refresh loop. It performs the initial load
// immediately and then blocks until the context is cancelled or Stop is
// called.
func (r *Runner[T]) Start(ctx context.Context) error {
	slog.Info("Starting fetch runner", "interval", r.interval, "jitter", r.jitter)

	runCtx, cancel := context.WithCancel(ctx)
	r.cancelFunc = cancel
	defer func() {
		close(r.done)
		slog.Info("Fetch runner shutting down")
	}()

	r.coord.Refresh(runCtx, TriggerInitial)

	ticker := time.NewTicker(r.tickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.coord.Refresh(runCtx, TriggerRefresh)

			// Recalculate interval with new jitter for next iteration
			ticker.Reset(r.tickInterval())
		case <-runCtx.Done():
			slog.Info("Fetch runner stopping")
			return nil
		}
	}
}

// Stop gracefully stops the runner
func (r *Runner[T]) Stop() error {
	if r.cancelFunc != nil {
		slog.Info("Stopping fetch runner")
		r.cancelFunc()
		<-r.done
	}
	return nil
}

// NotifyUploadComplete requests a refresh after an upload finished. The
// coordinator's debounce decides whether it actually runs.
func (r *Runner[T]) NotifyUploadComplete(ctx context.Context) {
	r.coord.Refresh(ctx, TriggerUpload)
}
