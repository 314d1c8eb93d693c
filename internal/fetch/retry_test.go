package fetch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetrySchedulerFires(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	s := newRetryScheduler(func() { fired.Add(1) })

	s.Arm(10 * time.Millisecond)
	assert.True(t, s.Armed())

	assert.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.False(t, s.Armed(), "a fired timer clears the slot")
}

func TestRetrySchedulerDisarm(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	s := newRetryScheduler(func() { fired.Add(1) })

	s.Arm(20 * time.Millisecond)
	s.Disarm()
	assert.False(t, s.Armed())

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, fired.Load(), "a disarmed timer must never fire")
}

func TestRetrySchedulerRearmSupersedes(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	s := newRetryScheduler(func() { fired.Add(1) })

	// Re-arming replaces the pending timer; only one fire results.
	s.Arm(30 * time.Millisecond)
	s.Arm(10 * time.Millisecond)

	assert.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestRetrySchedulerDisarmIdempotent(t *testing.T) {
	t.Parallel()

	s := newRetryScheduler(func() {})
	s.Disarm()
	s.Disarm()
	assert.False(t, s.Armed())
}
