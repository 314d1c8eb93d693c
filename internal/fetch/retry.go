package fetch

import (
	"sync"
	"time"
)

// retryScheduler owns the single cache-fallback retry timer slot. At most
// one timer is outstanding; arming replaces the previous generation and a
// stale timer that fires after being superseded is a no-op.
type retryScheduler struct {
	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	fire       func()
}

func newRetryScheduler(fire func()) *retryScheduler {
	return &retryScheduler{fire: fire}
}

// Arm cancels any existing timer and schedules a new one that triggers the
// fire callback after the given delay, then clears itself if it is still
// the currently-armed timer.
func (s *retryScheduler) Arm(after time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	gen := s.generation
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(after, func() {
		s.mu.Lock()
		if s.generation != gen {
			// A newer arm or a disarm superseded this timer.
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		s.fire()
	})
}

// Disarm cancels and clears the timer slot unconditionally
func (s *retryScheduler) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Armed reports whether a retry timer is currently outstanding
func (s *retryScheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}
