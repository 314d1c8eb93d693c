// Package envelope decodes backend responses for polled resources into a
// tri-state outcome and classifies the diagnostic flags they carry.
package envelope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Well-known source hints attached by the backend.
const (
	// SourceLive marks a response served from a fully live read
	SourceLive = "live"

	// SourceSnapshot marks a response served from a server-side snapshot
	SourceSnapshot = "snapshot"
)

// Flag is a single diagnostic signal with optional human-readable text
type Flag struct {
	IsActive    bool   `json:"isActive"`
	DisplayText string `json:"displayText,omitempty"`
}

// Diagnostics carries the classification metadata attached to a response.
// The flags are independent; any subset may be active simultaneously.
type Diagnostics struct {
	CacheFallback *Flag `json:"cacheFallback,omitempty"`
	PoolTimeout   *Flag `json:"poolTimeout,omitempty"`
	Error         *Flag `json:"error,omitempty"`
}

// active reports whether a possibly-nil flag is set and active
func active(f *Flag) bool {
	return f != nil && f.IsActive
}

// text returns the display text of a possibly-nil flag
func text(f *Flag) string {
	if f == nil {
		return ""
	}
	return f.DisplayText
}

// BackendDistress reports whether the diagnostics indicate a genuine backend
// error: an active pool-timeout flag, or an active error flag whose text
// denotes a database-layer failure.
//
// The database-layer check is substring matching on free-form text, which is
// implementation-defined pending a structured error kind from the server.
func (d *Diagnostics) BackendDistress() bool {
	if d == nil {
		return false
	}
	if active(d.PoolTimeout) {
		return true
	}
	return active(d.Error) && strings.Contains(strings.ToLower(text(d.Error)), "db_")
}

// Envelope is the decoded server response wrapper for a polled resource.
// OK is three-valued: absent means not-yet-known, which must not be confused
// with an explicit false.
type Envelope[T any] struct {
	OK          *bool        `json:"ok,omitempty"`
	Payload     *T           `json:"payload,omitempty"`
	Source      string       `json:"source,omitempty"`
	Diagnostics *Diagnostics `json:"diagnostics,omitempty"`

	// Cancellations is an advisory list of concurrently-cancelled sibling
	// requests. Informational only.
	Cancellations []string `json:"cancellations,omitempty"`
}

// Usable reports whether the envelope carries an explicit ok=true. An
// envelope with ok=false must not be treated as usable even if a payload is
// present.
func (e *Envelope[T]) Usable() bool {
	return e != nil && e.OK != nil && *e.OK
}

// Live reports whether the backend explicitly marked the response as a fully
// live read.
func (e *Envelope[T]) Live() bool {
	return e != nil && e.Source == SourceLive
}

// OutcomeKind discriminates the three decode results
type OutcomeKind int

const (
	// OutcomeFresh means ok=true with a payload present
	OutcomeFresh OutcomeKind = iota

	// OutcomeSoftFailure means the response parsed but ok != true or the
	// payload was absent
	OutcomeSoftFailure

	// OutcomeTransportFailure means no usable response body was obtainable
	OutcomeTransportFailure
)

// String returns the outcome kind name for logging
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeFresh:
		return "fresh"
	case OutcomeSoftFailure:
		return "soft-failure"
	case OutcomeTransportFailure:
		return "transport-failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of decoding one network call. Exactly one of the
// three kinds applies: Fresh carries Payload and Envelope, SoftFailure
// carries Envelope, TransportFailure carries Err.
type Outcome[T any] struct {
	Kind     OutcomeKind
	Envelope *Envelope[T]
	Payload  *T
	Err      error
}

// Cancelled reports whether the outcome is a transport failure caused by
// explicit request cancellation. Cancellation must be abandoned silently,
// never treated as a failure that advances retry state.
func (o Outcome[T]) Cancelled() bool {
	return o.Kind == OutcomeTransportFailure && IsCancellation(o.Err)
}

// IsCancellation reports whether err denotes an explicit request
// cancellation. Deadline expiry is a timeout, not a cancellation.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Decode turns raw response bytes or a transport error into exactly one
// outcome. A body that does not parse as an envelope counts as a transport
// failure because no envelope was obtainable from it.
func Decode[T any](data []byte, transportErr error) Outcome[T] {
	if transportErr != nil {
		return Outcome[T]{Kind: OutcomeTransportFailure, Err: transportErr}
	}

	var env Envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return Outcome[T]{
			Kind: OutcomeTransportFailure,
			Err:  fmt.Errorf("failed to decode response envelope: %w", err),
		}
	}

	if env.Usable() && env.Payload != nil {
		return Outcome[T]{Kind: OutcomeFresh, Envelope: &env, Payload: env.Payload}
	}

	return Outcome[T]{Kind: OutcomeSoftFailure, Envelope: &env}
}
