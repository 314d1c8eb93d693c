package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GaiaEyesHQ/featurefetch/internal/api"
	"github.com/GaiaEyesHQ/featurefetch/internal/backend"
	"github.com/GaiaEyesHQ/featurefetch/internal/cache"
	"github.com/GaiaEyesHQ/featurefetch/internal/config"
	"github.com/GaiaEyesHQ/featurefetch/internal/fetch"
	"github.com/GaiaEyesHQ/featurefetch/internal/telemetry"
	"github.com/GaiaEyesHQ/featurefetch/internal/versions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fetch coordinator",
	Long: `Run the fetch coordinator for the configured resource.

The daemon requires a configuration file (--config) that specifies:
- The polled resource endpoint and optional health endpoint
- Poll interval and jitter
- Snapshot storage (file or database)

See examples/ directory for sample configurations.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second
	serverIdleTimeout      = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("address", ":8080", "Address for the status API to listen on")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address"))
	if err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	err = viper.BindPFlag("config", serveCmd.Flags().Lookup("config"))
	if err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}

	// Mark config as required
	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	address := viper.GetString("address")

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"resource", cfg.GetResourceName(),
		"endpoint", cfg.Resource.Endpoint,
		"storage", cfg.GetStorageType())

	// Database pool is only needed for database snapshot storage
	var pool *pgxpool.Pool
	if cfg.GetStorageType() == config.StorageTypeDatabase {
		connString, err := cfg.Database.GetConnectionString()
		if err != nil {
			return fmt.Errorf("failed to build database connection string: %w", err)
		}
		pool, err = pgxpool.New(ctx, connString)
		if err != nil {
			return fmt.Errorf("failed to create database pool: %w", err)
		}
		defer pool.Close()
	}

	durable, err := cache.NewSnapshotStore[json.RawMessage](cfg, pool)
	if err != nil {
		return fmt.Errorf("failed to create snapshot store: %w", err)
	}
	store := cache.New(durable)

	// Metrics
	provider, shutdownMeter, err := telemetry.NewMeterProvider(ctx,
		telemetry.WithMeterServiceName("featurefetchd"),
		telemetry.WithMeterServiceVersion(versions.GetVersionInfo().Version),
		telemetry.WithTelemetryConfig(cfg.Telemetry),
	)
	if err != nil {
		return fmt.Errorf("failed to create meter provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
		defer cancel()
		if err := shutdownMeter(shutdownCtx); err != nil {
			slog.Warn("Failed to shut down meter provider", "error", err)
		}
	}()

	metrics, err := telemetry.NewFetchMetrics(provider)
	if err != nil {
		return fmt.Errorf("failed to create fetch metrics: %w", err)
	}

	// Network collaborators
	client := backend.NewDefaultClient(cfg.Resource.Endpoint, cfg.GetFetchTimeout())
	var probe backend.ReachabilityProbe = backend.NewAlwaysReachableProbe()
	if cfg.Resource.HealthEndpoint != "" {
		probe = backend.NewHTTPProbe(cfg.Resource.HealthEndpoint)
	}

	coord := fetch.New(cfg.GetResourceName(), client, store, probe,
		fetch.WithMetrics[json.RawMessage](metrics))
	runner := fetch.NewRunner(coord, cfg.GetPollInterval(), cfg.GetPollJitter())

	// Status API
	router := api.NewServer(coord, api.WithMiddlewares(api.LoggingMiddleware))
	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	runnerErr := make(chan error, 1)
	go func() {
		runnerErr <- runner.Start(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting status API server", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("Status API server failed", "error", err)
	case err := <-runnerErr:
		if err != nil {
			slog.Error("Fetch runner failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Failed to shut down status API server", "error", err)
	}
	if err := runner.Stop(); err != nil {
		slog.Warn("Failed to stop fetch runner", "error", err)
	}

	return nil
}
