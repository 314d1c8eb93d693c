package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/GaiaEyesHQ/featurefetch/internal/config"
)

const (
	// DefaultServiceName is used when no service name is configured
	DefaultServiceName = "featurefetchd"

	// DefaultMetricsInterval is the default interval for metric collection
	DefaultMetricsInterval = 60 * time.Second
)

// MeterProviderOption is a function that configures the meter provider setup
type MeterProviderOption func(*meterProviderConfig)

// meterProviderConfig holds the configuration for creating a meter provider
type meterProviderConfig struct {
	serviceName    string
	serviceVersion string
	telemetry      *config.TelemetryConfig
}

// WithMeterServiceName sets the service name for the meter provider
func WithMeterServiceName(name string) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.serviceName = name
	}
}

// WithMeterServiceVersion sets the service version for the meter provider
func WithMeterServiceVersion(version string) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.serviceVersion = version
	}
}

// WithTelemetryConfig sets the telemetry configuration
func WithTelemetryConfig(tc *config.TelemetryConfig) MeterProviderOption {
	return func(cfg *meterProviderConfig) {
		cfg.telemetry = tc
	}
}

// ShutdownFunc flushes and stops a meter provider
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// NewMeterProvider creates a new OpenTelemetry MeterProvider based on the
// configuration. Returns a no-op provider if metrics are disabled or the
// configuration is nil. The caller is responsible for calling the returned
// shutdown function.
func NewMeterProvider(ctx context.Context, opts ...MeterProviderOption) (metric.MeterProvider, ShutdownFunc, error) {
	cfg := &meterProviderConfig{
		serviceName:    DefaultServiceName,
		serviceVersion: "unknown",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.telemetry == nil || !cfg.telemetry.Enabled {
		slog.Debug("Metrics disabled, using no-op meter provider")
		return noop.NewMeterProvider(), noopShutdown, nil
	}

	exporterOpts := []otlpmetrichttp.Option{}
	if cfg.telemetry.Endpoint != "" {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithEndpoint(cfg.telemetry.Endpoint))
	}
	if cfg.telemetry.Insecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.serviceName),
		semconv.ServiceVersion(cfg.serviceVersion),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create telemetry resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
			exporter,
			sdkmetric.WithInterval(DefaultMetricsInterval),
		)),
	)

	return provider, provider.Shutdown, nil
}
