// Package telemetry provides OpenTelemetry instrumentation for the fetch
// coordinator.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// FetchMetricsMeterName is the name used for the fetch metrics meter
	FetchMetricsMeterName = "github.com/GaiaEyesHQ/featurefetch/fetch"
)

// FetchMetrics holds the OpenTelemetry instruments for coordinator runs
type FetchMetrics struct {
	attempts      metric.Int64Counter
	guardSkips    metric.Int64Counter
	fallbacks     metric.Int64Counter
	circuitOpens  metric.Int64Counter
	fetchDuration metric.Float64Histogram
}

// NewFetchMetrics creates a new FetchMetrics instance with the given meter
// provider. If provider is nil, it returns nil (no-op metrics).
func NewFetchMetrics(provider metric.MeterProvider) (*FetchMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(FetchMetricsMeterName)

	attempts, err := meter.Int64Counter(
		"featurefetch_attempts_total",
		metric.WithDescription("Number of network fetch attempts by outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	guardSkips, err := meter.Int64Counter(
		"featurefetch_guard_skips_total",
		metric.WithDescription("Number of refresh requests suppressed by an entry guard"),
		metric.WithUnit("{skip}"),
	)
	if err != nil {
		return nil, err
	}

	fallbacks, err := meter.Int64Counter(
		"featurefetch_cache_fallbacks_total",
		metric.WithDescription("Number of runs that applied a cached snapshot instead of fresh data"),
		metric.WithUnit("{fallback}"),
	)
	if err != nil {
		return nil, err
	}

	circuitOpens, err := meter.Int64Counter(
		"featurefetch_circuit_opens_total",
		metric.WithDescription("Number of hard misses that opened the circuit"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"featurefetch_run_duration_seconds",
		metric.WithDescription("Duration of coordinator runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30),
	)
	if err != nil {
		return nil, err
	}

	return &FetchMetrics{
		attempts:      attempts,
		guardSkips:    guardSkips,
		fallbacks:     fallbacks,
		circuitOpens:  circuitOpens,
		fetchDuration: fetchDuration,
	}, nil
}

// RecordAttempt records one network fetch attempt and its outcome
func (m *FetchMetrics) RecordAttempt(ctx context.Context, resource, outcome string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("outcome", outcome),
	))
}

// RecordGuardSkip records a refresh request suppressed by an entry guard
func (m *FetchMetrics) RecordGuardSkip(ctx context.Context, resource, reason string) {
	if m == nil || m.guardSkips == nil {
		return
	}
	m.guardSkips.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("reason", reason),
	))
}

// RecordFallback records a run that applied a cached snapshot
func (m *FetchMetrics) RecordFallback(ctx context.Context, resource string, distress bool) {
	if m == nil || m.fallbacks == nil {
		return
	}
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.Bool("backend_distress", distress),
	))
}

// RecordCircuitOpen records a hard miss that opened the circuit
func (m *FetchMetrics) RecordCircuitOpen(ctx context.Context, resource, kind string) {
	if m == nil || m.circuitOpens == nil {
		return
	}
	m.circuitOpens.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("kind", kind),
	))
}

// RecordRunDuration records the duration of one coordinator run
func (m *FetchMetrics) RecordRunDuration(ctx context.Context, resource string, duration time.Duration, success bool) {
	if m == nil || m.fetchDuration == nil {
		return
	}
	m.fetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.Bool("success", success),
	))
}
