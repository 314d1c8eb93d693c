package fetch

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/GaiaEyesHQ/featurefetch/internal/envelope"
)

const (
	// maxAttempts bounds the retry loop of a single coordinator run
	maxAttempts = 3

	// debounceWindow suppresses triggers that arrive while a very recent
	// attempt is still settling
	debounceWindow = 6 * time.Second

	// baseGuard is the quiet period after any usable result
	baseGuard = 6 * time.Second

	// distressGuard replaces baseGuard when diagnostics indicate the
	// degraded condition is likely to persist briefly
	distressGuard = 10 * time.Second

	// Backoff schedule between failed attempts: 5.0s, then 8.0s, capped at
	// 12s so three attempts complete within roughly 17 seconds worst case.
	backoffInitial    = 5 * time.Second
	backoffMultiplier = 1.6
	backoffCap        = 12 * time.Second

	// DefaultFallbackRetryDelay is how long after a distress-attributed
	// cache fallback the follow-up refresh fires. It must exceed the
	// distress guard or the follow-up would be suppressed.
	DefaultFallbackRetryDelay = 15 * time.Second
)

// Circuit breaker escalation. Both branches use consecutiveFailures as the
// exponent so repeated hard failures geometrically lengthen the quiet
// period, capped to prevent indefinite lockout.
const (
	hardCircuitBase   = 15.0
	hardCircuitFactor = 2.0
	hardCircuitCap    = 300.0

	gentleCircuitBase   = 6.0
	gentleCircuitFactor = 1.6
	gentleCircuitCap    = 60.0
)

// newRetryBackoff builds the capped exponential schedule for the inter-
// attempt sleeps of one run. Randomization is disabled so the schedule is
// exactly 5.0s, 8.0s.
func newRetryBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = backoffInitial
	b.RandomizationFactor = 0
	b.Multiplier = backoffMultiplier
	b.MaxInterval = backoffCap
	b.Reset()
	return b
}

// guardAfterResult computes the guard duration after a usable result, fresh
// or cache fallback. A zero return means the guard is cleared immediately.
//
// A mere cacheFallback flag with no accompanying pool-timeout or error flag
// does not extend the guard: when the fallback was incidental rather than
// caused by backend distress, the consumer may retry quickly.
func guardAfterResult[T any](env *envelope.Envelope[T], fromCache bool) time.Duration {
	// A live signal always takes priority, overriding any previously-set
	// longer guard.
	if env.Live() {
		return 0
	}

	guard := baseGuard
	if env != nil && env.Diagnostics.BackendDistress() {
		guard = distressGuard
	}
	// A fallback with no diagnostics object at all has a legacy/unknown
	// cause and gets the longer guard.
	if fromCache && (env == nil || env.Diagnostics == nil) {
		guard = distressGuard
	}
	return guard
}

// hardCircuitGuard is the quiet period after a hard miss where the backend
// at least produced an envelope.
func hardCircuitGuard(consecutiveFailures int) time.Duration {
	secs := math.Min(hardCircuitCap, math.Pow(hardCircuitFactor, float64(consecutiveFailures))*hardCircuitBase)
	return time.Duration(secs * float64(time.Second))
}

// gentleCircuitGuard is the quiet period after a total miss with no envelope
// at all.
func gentleCircuitGuard(consecutiveFailures int) time.Duration {
	secs := math.Min(gentleCircuitCap, math.Pow(gentleCircuitFactor, float64(consecutiveFailures))*gentleCircuitBase)
	return time.Duration(secs * float64(time.Second))
}
