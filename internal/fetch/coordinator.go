package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GaiaEyesHQ/featurefetch/internal/backend"
	"github.com/GaiaEyesHQ/featurefetch/internal/cache"
	"github.com/GaiaEyesHQ/featurefetch/internal/envelope"
	"github.com/GaiaEyesHQ/featurefetch/internal/telemetry"
)

// Result is what the coordinator hands its consumer: either a fresh payload
// or a cache-substituted one, with the classification the consumer may
// render as a banner. The coordinator never surfaces network or parse
// errors past this boundary.
type Result[T any] struct {
	Payload        T
	FromCache      bool
	Classification envelope.Classification
	FetchedAt      time.Time
	Source         string
	RunID          string
}

// Coordinator orchestrates refreshes of one polled resource. It is
// constructed once per resource with injected collaborators; concurrent
// refresh triggers collapse into a no-op rather than parallel fetches.
type Coordinator[T any] struct {
	resource string
	client   backend.Client
	store    *cache.Store[T]
	probe    backend.ReachabilityProbe
	clock    Clock
	metrics  *telemetry.FetchMetrics
	onResult func(Result[T])

	fallbackRetryDelay time.Duration
	retry              *retryScheduler

	// mu guards st and the last-run observability fields
	mu                 sync.Mutex
	st                 state
	lastOutcome        string
	lastClassification *envelope.Classification
}

// Option is a function that configures the coordinator
type Option[T any] func(*Coordinator[T])

// WithClock replaces the system clock
func WithClock[T any](clock Clock) Option[T] {
	return func(c *Coordinator[T]) {
		c.clock = clock
	}
}

// WithMetrics sets the fetch metrics for the coordinator
func WithMetrics[T any](metrics *telemetry.FetchMetrics) Option[T] {
	return func(c *Coordinator[T]) {
		c.metrics = metrics
	}
}

// WithOnResult sets the consumer callback invoked on every applied result
func WithOnResult[T any](fn func(Result[T])) Option[T] {
	return func(c *Coordinator[T]) {
		c.onResult = fn
	}
}

// WithFallbackRetryDelay overrides how long after a distress-attributed
// cache fallback the follow-up refresh fires.
func WithFallbackRetryDelay[T any](d time.Duration) Option[T] {
	return func(c *Coordinator[T]) {
		c.fallbackRetryDelay = d
	}
}

// New creates a new coordinator with injected dependencies
func New[T any](
	resource string,
	client backend.Client,
	store *cache.Store[T],
	probe backend.ReachabilityProbe,
	opts ...Option[T],
) *Coordinator[T] {
	c := &Coordinator[T]{
		resource:           resource,
		client:             client,
		store:              store,
		probe:              probe,
		clock:              NewRealClock(),
		fallbackRetryDelay: DefaultFallbackRetryDelay,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.retry = newRetryScheduler(func() {
		c.Refresh(context.Background(), TriggerRefresh)
	})

	return c
}

// RefreshOption configures a single refresh call
type RefreshOption func(*refreshOptions)

type refreshOptions struct {
	bypassGuard bool
}

// WithGuardBypass forces the guard-window check to be skipped. Used for a
// one-shot internal follow-up after a remediation action.
func WithGuardBypass() RefreshOption {
	return func(ro *refreshOptions) {
		ro.bypassGuard = true
	}
}

// Refresh performs one logical refresh of the resource. All failures are
// absorbed internally: the consumer sees a fresh payload, a cached one, or
// nothing.
func (c *Coordinator[T]) Refresh(ctx context.Context, trigger Trigger, opts ...RefreshOption) {
	var ro refreshOptions
	for _, opt := range opts {
		opt(&ro)
	}

	now := c.clock.Now()

	c.mu.Lock()
	if reason := c.checkEntry(now, trigger, ro.bypassGuard); reason != "" {
		c.mu.Unlock()
		slog.Debug("Refresh suppressed",
			"resource", c.resource,
			"trigger", string(trigger),
			"reason", reason)
		c.metrics.RecordGuardSkip(ctx, c.resource, reason)
		return
	}
	c.st.busy = true
	c.mu.Unlock()

	// busy returns to false on every exit path
	defer func() {
		c.mu.Lock()
		c.st.busy = false
		c.mu.Unlock()
	}()

	// The coordinator never calls the network when the reachability
	// collaborator reports unreachable.
	if !c.probe.IsReachable(ctx) {
		slog.Warn("Backend unreachable, skipping refresh",
			"resource", c.resource,
			"trigger", string(trigger))
		c.metrics.RecordGuardSkip(ctx, c.resource, SkipReasonUnreachable)
		return
	}

	c.mu.Lock()
	c.st.lastAttemptAt = now
	c.mu.Unlock()

	c.run(ctx, trigger)
}

// checkEntry evaluates the entry guards in order; the first tripped guard
// short-circuits the whole run and leaves state unchanged. Must be called
// with c.mu held. Returns the skip reason, or "" when the run may proceed.
func (c *Coordinator[T]) checkEntry(now time.Time, trigger Trigger, bypassGuard bool) string {
	if c.st.busy {
		return SkipReasonBusy
	}
	if !bypassGuard && now.Before(c.st.guardUntil) {
		return SkipReasonGuardWindow
	}
	if !c.st.lastAttemptAt.IsZero() && now.Sub(c.st.lastAttemptAt) < debounceWindow {
		if trigger.Frequent() {
			return SkipReasonDebounceFrequent
		}
		if now.Sub(c.st.lastSuccessAt) > debounceWindow {
			return SkipReasonDebounceSettling
		}
	}
	return ""
}

// run executes the bounded retry loop for one refresh
func (c *Coordinator[T]) run(ctx context.Context, trigger Trigger) {
	runID := uuid.NewString()
	start := c.clock.Now()
	log := slog.With("resource", c.resource, "trigger", string(trigger), "run_id", runID)
	log.Info("Starting refresh run")

	bo := newRetryBackoff()
	var lastEnv *envelope.Envelope[T]

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, err := c.client.Fetch(ctx)
		out := envelope.Decode[T](data, err)

		if out.Cancelled() {
			// Abandon silently: no retry-state mutation, no fallback.
			log.Debug("Refresh cancelled, abandoning run", "attempt", attempt)
			return
		}

		c.metrics.RecordAttempt(ctx, c.resource, out.Kind.String())

		if out.Kind == envelope.OutcomeFresh {
			c.applyFresh(ctx, out, runID, log)
			c.metrics.RecordRunDuration(ctx, c.resource, c.clock.Now().Sub(start), true)
			return
		}

		if out.Envelope != nil {
			lastEnv = out.Envelope
		}
		log.Warn("Fetch attempt failed",
			"attempt", attempt,
			"outcome", out.Kind.String(),
			"error", out.Err)

		snap, lookupErr := c.store.Lookup(ctx)
		if lookupErr != nil {
			log.Warn("Cache lookup failed", "error", lookupErr)
			snap = nil
		}
		if snap != nil {
			c.applyFallback(ctx, snap, lastEnv, runID, log)
			c.metrics.RecordRunDuration(ctx, c.resource, c.clock.Now().Sub(start), true)
			return
		}

		if attempt < maxAttempts {
			delay := bo.NextBackOff()
			log.Info("No cache available, backing off before retry",
				"attempt", attempt,
				"delay", delay)
			if err := c.clock.Sleep(ctx, delay); err != nil {
				log.Debug("Backoff sleep interrupted, abandoning run")
				return
			}
		}
	}

	c.openCircuit(ctx, lastEnv, log)
	c.metrics.RecordRunDuration(ctx, c.resource, c.clock.Now().Sub(start), false)
}

// applyFresh installs a freshly fetched payload
func (c *Coordinator[T]) applyFresh(ctx context.Context, out envelope.Outcome[T], runID string, log *slog.Logger) {
	now := c.clock.Now()

	snap := &cache.Snapshot[T]{
		Payload:   *out.Payload,
		FetchedAt: now,
		Source:    out.Envelope.Source,
		RunID:     runID,
	}
	if err := c.store.Put(ctx, snap); err != nil {
		// The in-memory tier is already updated; a persist failure only
		// costs durability across a restart.
		log.Warn("Failed to persist snapshot", "error", err)
	}

	classification := envelope.Classify(out.Envelope, false)
	guard := guardAfterResult(out.Envelope, false)

	c.mu.Lock()
	c.st.consecutiveFailures = 0
	c.st.lastSuccessAt = now
	c.st.guardUntil = now.Add(guard)
	c.lastOutcome = OutcomeApplied
	c.lastClassification = &classification
	c.mu.Unlock()

	// Fallback is no longer active; cancel any pending retry.
	c.retry.Disarm()

	log.Info("Applied fresh payload", "guard", guard, "source", out.Envelope.Source)
	c.emit(Result[T]{
		Payload:        *out.Payload,
		Classification: classification,
		FetchedAt:      now,
		Source:         out.Envelope.Source,
		RunID:          runID,
	})
}

// applyFallback substitutes the cached snapshot for the missing fresh
// payload. lastEnv is the last envelope seen in this run, if any.
func (c *Coordinator[T]) applyFallback(
	ctx context.Context,
	snap *cache.Snapshot[T],
	lastEnv *envelope.Envelope[T],
	runID string,
	log *slog.Logger,
) {
	now := c.clock.Now()
	c.store.Promote(snap)

	classification := envelope.Classify(lastEnv, true)
	guard := guardAfterResult(lastEnv, true)
	distress := lastEnv != nil && lastEnv.Diagnostics.BackendDistress()

	c.mu.Lock()
	c.st.consecutiveFailures = 0
	c.st.lastSuccessAt = now
	c.st.guardUntil = now.Add(guard)
	c.lastOutcome = OutcomeCacheFallback
	c.lastClassification = &classification
	c.mu.Unlock()

	// Retry soon only when the fallback is attributable to a genuine
	// backend error; a benign fallback must not keep getting retried.
	if distress {
		c.retry.Arm(c.fallbackRetryDelay)
	} else {
		c.retry.Disarm()
	}

	c.metrics.RecordFallback(ctx, c.resource, distress)
	log.Info("Applied cached snapshot",
		"guard", guard,
		"backend_distress", distress,
		"cache_age", now.Sub(snap.FetchedAt))
	c.emit(Result[T]{
		Payload:        snap.Payload,
		FromCache:      true,
		Classification: classification,
		FetchedAt:      snap.FetchedAt,
		Source:         snap.Source,
		RunID:          runID,
	})
}

// openCircuit handles the hard-miss terminal case: no fresh data and no
// cache after exhausting retries. The previous in-memory snapshot, if any,
// is left untouched.
func (c *Coordinator[T]) openCircuit(ctx context.Context, lastEnv *envelope.Envelope[T], log *slog.Logger) {
	now := c.clock.Now()

	c.mu.Lock()
	c.st.consecutiveFailures++
	failures := c.st.consecutiveFailures

	var guard time.Duration
	kind := "hard"
	if lastEnv == nil {
		// Total miss with no envelope at all gets the gentler escalation.
		kind = "gentle"
		guard = gentleCircuitGuard(failures)
	} else {
		guard = hardCircuitGuard(failures)
	}
	c.st.guardUntil = now.Add(guard)
	c.lastOutcome = OutcomeCircuitOpen
	c.mu.Unlock()

	c.metrics.RecordCircuitOpen(ctx, c.resource, kind)
	log.Warn("Hard miss, opening circuit",
		"consecutive_failures", failures,
		"kind", kind,
		"guard", guard)
}

func (c *Coordinator[T]) emit(r Result[T]) {
	if c.onResult != nil {
		c.onResult(r)
	}
}

// Status returns a read-only view of the coordinator state
func (c *Coordinator[T]) Status() Snapshot {
	now := c.clock.Now()

	c.mu.Lock()
	snap := Snapshot{
		Resource:            c.resource,
		Busy:                c.st.busy,
		GuardActive:         now.Before(c.st.guardUntil),
		GuardUntil:          optionalTime(c.st.guardUntil),
		ConsecutiveFailures: c.st.consecutiveFailures,
		LastAttemptAt:       optionalTime(c.st.lastAttemptAt),
		LastSuccessAt:       optionalTime(c.st.lastSuccessAt),
		LastOutcome:         c.lastOutcome,
		LastClassification:  c.lastClassification,
	}
	c.mu.Unlock()

	snap.FallbackRetryArmed = c.retry.Armed()
	if known := c.store.LastKnown(); known != nil {
		snap.CacheFetchedAt = optionalTime(known.FetchedAt)
	}
	return snap
}
