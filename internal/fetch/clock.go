package fetch

import (
	"context"
	"time"
)

// Clock abstracts time for the coordinator so guard windows and backoff
// sleeps are testable.
type Clock interface {
	// Now returns the current instant
	Now() time.Time

	// Sleep blocks for d or until ctx is done, returning ctx.Err() when
	// interrupted
	Sleep(ctx context.Context, d time.Duration) error
}

// realClock implements Clock on the system timer
type realClock struct{}

// NewRealClock returns the system clock
func NewRealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
