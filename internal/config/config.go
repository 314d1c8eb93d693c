// Package config provides configuration loading and management for the
// fetch coordinator daemon.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variables read by the daemon
const EnvPrefix = "FEATUREFETCH"

const (
	// StorageTypeFile keeps the durable snapshot in a local JSON file
	StorageTypeFile = "file"

	// StorageTypeDatabase keeps the durable snapshot in PostgreSQL
	StorageTypeDatabase = "database"
)

const (
	// DefaultPollInterval is the base interval between periodic refresh triggers
	DefaultPollInterval = 2 * time.Minute

	// DefaultPollJitter is the maximum random offset applied to the poll interval
	DefaultPollJitter = 30 * time.Second

	// DefaultFetchTimeout bounds a single network call
	DefaultFetchTimeout = 30 * time.Second
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Resource describes the polled backend resource
	Resource ResourceConfig `yaml:"resource"`

	// Poll configures the periodic refresh trigger
	Poll *PollConfig `yaml:"poll,omitempty"`

	// Snapshot configures the durable cache tier
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Database is required when the snapshot storage type is "database"
	Database *DatabaseConfig `yaml:"database,omitempty"`

	// Telemetry configures the OpenTelemetry metrics exporter
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// ResourceConfig identifies the polled resource and its endpoints
type ResourceConfig struct {
	// Name is the identifier for this resource, used in logs, metrics and
	// the snapshot store key. Defaults to "default" if not specified.
	Name string `yaml:"name,omitempty"`

	// Endpoint is the URL the coordinator fetches the resource from
	Endpoint string `yaml:"endpoint"`

	// HealthEndpoint is consulted once per run to decide whether the
	// backend is reachable before any fetch. Optional; when empty the
	// backend is assumed reachable.
	HealthEndpoint string `yaml:"healthEndpoint,omitempty"`

	// FetchTimeout bounds a single network call (e.g., "30s")
	FetchTimeout string `yaml:"fetchTimeout,omitempty"`
}

// PollConfig configures the periodic refresh loop
type PollConfig struct {
	// Interval is the base interval between refresh triggers (e.g., "2m")
	Interval string `yaml:"interval,omitempty"`

	// Jitter is the maximum random offset applied per tick (e.g., "30s")
	Jitter string `yaml:"jitter,omitempty"`
}

// SnapshotConfig configures the durable snapshot tier
type SnapshotConfig struct {
	// Storage selects the backend: "file" (default) or "database"
	Storage string `yaml:"storage,omitempty"`

	// Path is the base directory for file storage. Defaults to "./data".
	Path string `yaml:"path,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing
	// whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`
}

// TelemetryConfig configures metrics export
type TelemetryConfig struct {
	// Enabled turns the OTLP metrics exporter on
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP HTTP endpoint (host:port)
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure disables TLS for the exporter connection
	Insecure bool `yaml:"insecure,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from FEATUREFETCH_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	// Priority 1: Read from file if specified
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		// Trim whitespace (including newlines) from file content
		password := strings.TrimSpace(string(data))
		return password, nil
	}

	// Priority 2: Check environment variable
	if envPassword := os.Getenv("FEATUREFETCH_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or FEATUREFETCH_DATABASE_PASSWORD environment variable",
	)
}

// GetConnectionString builds a PostgreSQL connection string with proper password handling.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	// URL-escape the password to handle special characters
	escapedPassword := url.QueryEscape(password)

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		escapedPassword,
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	// As of now, this is required because there's no other options to load
	// configuration. Once we add more options, we can remove this check.
	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetResourceName returns the resource name, using "default" if not specified
func (c *Config) GetResourceName() string {
	if c.Resource.Name == "" {
		return "default"
	}
	return c.Resource.Name
}

// GetStorageType returns the snapshot storage type, defaulting to file
func (c *Config) GetStorageType() string {
	if c.Snapshot.Storage == "" {
		return StorageTypeFile
	}
	return c.Snapshot.Storage
}

// GetSnapshotPath returns the base directory for file snapshot storage
func (c *Config) GetSnapshotPath() string {
	if c.Snapshot.Path == "" {
		return "./data"
	}
	return c.Snapshot.Path
}

// GetFetchTimeout parses the fetch timeout, falling back to the default on
// absent or invalid values.
func (c *Config) GetFetchTimeout() time.Duration {
	if c.Resource.FetchTimeout == "" {
		return DefaultFetchTimeout
	}
	d, err := time.ParseDuration(c.Resource.FetchTimeout)
	if err != nil || d <= 0 {
		return DefaultFetchTimeout
	}
	return d
}

// GetPollInterval parses the poll interval, falling back to the default
func (c *Config) GetPollInterval() time.Duration {
	if c.Poll == nil || c.Poll.Interval == "" {
		return DefaultPollInterval
	}
	d, err := time.ParseDuration(c.Poll.Interval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

// GetPollJitter parses the poll jitter, falling back to the default
func (c *Config) GetPollJitter() time.Duration {
	if c.Poll == nil || c.Poll.Jitter == "" {
		return DefaultPollJitter
	}
	d, err := time.ParseDuration(c.Poll.Jitter)
	if err != nil || d < 0 {
		return DefaultPollJitter
	}
	return d
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if c.Resource.Endpoint == "" {
		return fmt.Errorf("resource endpoint is required")
	}
	if _, err := url.ParseRequestURI(c.Resource.Endpoint); err != nil {
		return fmt.Errorf("invalid resource endpoint: %w", err)
	}
	if c.Resource.HealthEndpoint != "" {
		if _, err := url.ParseRequestURI(c.Resource.HealthEndpoint); err != nil {
			return fmt.Errorf("invalid health endpoint: %w", err)
		}
	}

	if c.Resource.FetchTimeout != "" {
		if _, err := time.ParseDuration(c.Resource.FetchTimeout); err != nil {
			return fmt.Errorf("invalid fetch timeout: %w", err)
		}
	}
	if c.Poll != nil {
		if c.Poll.Interval != "" {
			if _, err := time.ParseDuration(c.Poll.Interval); err != nil {
				return fmt.Errorf("invalid poll interval: %w", err)
			}
		}
		if c.Poll.Jitter != "" {
			if _, err := time.ParseDuration(c.Poll.Jitter); err != nil {
				return fmt.Errorf("invalid poll jitter: %w", err)
			}
		}
	}

	switch c.GetStorageType() {
	case StorageTypeFile:
		// Path has a default; nothing further to check.
	case StorageTypeDatabase:
		if c.Database == nil {
			return fmt.Errorf("database configuration is required when snapshot storage is %q", StorageTypeDatabase)
		}
		if c.Database.Host == "" || c.Database.Database == "" || c.Database.User == "" {
			return fmt.Errorf("database host, database and user are required")
		}
	default:
		return fmt.Errorf("unsupported snapshot storage type: %q", c.Snapshot.Storage)
	}

	return nil
}
