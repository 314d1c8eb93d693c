package fetch

import (
	"time"

	"github.com/GaiaEyesHQ/featurefetch/internal/envelope"
)

// Trigger identifies what caused a refresh request
type Trigger string

const (
	// TriggerInitial is the first load after startup
	TriggerInitial Trigger = "initial"

	// TriggerRefresh is a periodic or user-driven refresh
	TriggerRefresh Trigger = "refresh"

	// TriggerUpload is a refresh following an upload completion
	TriggerUpload Trigger = "upload"
)

// Frequent reports whether the trigger is of the frequent kind, which gets
// the stricter debounce treatment.
func (t Trigger) Frequent() bool {
	return t == TriggerRefresh || t == TriggerUpload
}

// Run outcome labels used in logs, metrics and the status snapshot
const (
	OutcomeApplied       = "applied"
	OutcomeCacheFallback = "cache-fallback"
	OutcomeCircuitOpen   = "circuit-open"
	OutcomeAbandoned     = "abandoned"
)

// Entry guard skip reasons
const (
	SkipReasonBusy             = "busy"
	SkipReasonGuardWindow      = "guard-window"
	SkipReasonDebounceFrequent = "debounce-frequent"
	SkipReasonDebounceSettling = "debounce-settling"
	SkipReasonUnreachable      = "backend-unreachable"
)

// state is the coordinator-owned mutable fetch state. It is mutated only by
// the coordinator itself, under its mutex.
type state struct {
	// busy is true for the duration of one coordinator run
	busy bool

	// guardUntil suppresses refresh attempts before this instant unless
	// explicitly bypassed
	guardUntil time.Time

	// consecutiveFailures counts hard misses since the last usable result
	consecutiveFailures int

	lastAttemptAt time.Time
	lastSuccessAt time.Time
}

// Snapshot is a read-only view of the coordinator state for the status API
type Snapshot struct {
	Resource            string                   `json:"resource"`
	Busy                bool                     `json:"busy"`
	GuardActive         bool                     `json:"guardActive"`
	GuardUntil          *time.Time               `json:"guardUntil,omitempty"`
	ConsecutiveFailures int                      `json:"consecutiveFailures"`
	LastAttemptAt       *time.Time               `json:"lastAttemptAt,omitempty"`
	LastSuccessAt       *time.Time               `json:"lastSuccessAt,omitempty"`
	LastOutcome         string                   `json:"lastOutcome,omitempty"`
	LastClassification  *envelope.Classification `json:"lastClassification,omitempty"`
	FallbackRetryArmed  bool                     `json:"fallbackRetryArmed"`
	CacheFetchedAt      *time.Time               `json:"cacheFetchedAt,omitempty"`
}

// optionalTime maps a zero time to nil for JSON omission
func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
