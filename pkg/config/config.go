package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Plugin platform configuration
	Plugins PluginsConfig

	// Source configuration
	Source SourceConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for probes)
	HealthPort string
}

// PluginsConfig holds plugin platform paths and behavior
type PluginsConfig struct {
	Root        string
	StatePath   string
	StagingDir  string
	BackupDir   string
	HistoryPath string

	// AppVersion is the running application version plugins are gated
	// against.
	AppVersion string

	// WatchEnabled turns on filesystem watching of the plugins root.
	WatchEnabled bool

	// UpdateCheckSchedule is a cron expression for periodic update
	// checks; empty disables them.
	UpdateCheckSchedule string

	// PackageQueryTimeout bounds individual rpm queries.
	PackageQueryTimeout time.Duration
}

// SourceConfig holds plugin source configuration
type SourceConfig struct {
	// Type is "dir" or "http".
	Type string

	// Dir is the local archive directory for the dir source.
	Dir string

	// URL is the base URL for the http source.
	URL string

	// Timeout bounds http source downloads.
	Timeout time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  string
	LogFormat string

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Plugins:       loadPluginsConfig(),
		Source:        loadSourceConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("TWEAKS_HOST", "127.0.0.1"),
		Port:            getEnv("TWEAKS_PORT", "8815"),
		ReadTimeout:     getEnvDuration("TWEAKS_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("TWEAKS_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("TWEAKS_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("TWEAKS_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("TWEAKS_HEALTH_PORT", "9815"),
	}
}

// loadPluginsConfig loads plugin platform configuration from environment
func loadPluginsConfig() PluginsConfig {
	dataDir := getEnv("TWEAKS_DATA_DIR", defaultDataDir())

	return PluginsConfig{
		Root:                getEnv("TWEAKS_PLUGINS_ROOT", filepath.Join(dataDir, "plugins")),
		StatePath:           getEnv("TWEAKS_STATE_PATH", filepath.Join(dataDir, "plugins_state.yaml")),
		StagingDir:          getEnv("TWEAKS_STAGING_DIR", filepath.Join(dataDir, "staging")),
		BackupDir:           getEnv("TWEAKS_BACKUP_DIR", filepath.Join(dataDir, "backups")),
		HistoryPath:         getEnv("TWEAKS_HISTORY_PATH", filepath.Join(dataDir, "history.db")),
		AppVersion:          getEnv("TWEAKS_APP_VERSION", "1.0.0"),
		WatchEnabled:        getEnvBool("TWEAKS_WATCH_ENABLED", true),
		UpdateCheckSchedule: getEnv("TWEAKS_UPDATE_CHECK_SCHEDULE", "@every 6h"),
		PackageQueryTimeout: getEnvDuration("TWEAKS_PACKAGE_QUERY_TIMEOUT", 5*time.Second),
	}
}

// loadSourceConfig loads plugin source configuration from environment
func loadSourceConfig() SourceConfig {
	dataDir := getEnv("TWEAKS_DATA_DIR", defaultDataDir())

	return SourceConfig{
		Type:    getEnv("TWEAKS_SOURCE_TYPE", "dir"),
		Dir:     getEnv("TWEAKS_SOURCE_DIR", filepath.Join(dataDir, "repo")),
		URL:     getEnv("TWEAKS_SOURCE_URL", ""),
		Timeout: getEnvDuration("TWEAKS_SOURCE_TIMEOUT", 30*time.Second),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           getEnv("TWEAKS_LOG_LEVEL", "info"),
		LogFormat:          getEnv("TWEAKS_LOG_FORMAT", "text"),
		MetricsEnabled:     getEnvBool("TWEAKS_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("TWEAKS_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("TWEAKS_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("TWEAKS_OTEL_SERVICE_NAME", "tweaks-plugind"),
		OTelServiceVersion: getEnv("TWEAKS_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("TWEAKS_OTEL_INSECURE", true),
	}
}

// defaultDataDir places platform data under the user's data home.
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "loofi-tweaks")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "loofi-tweaks")
	}
	return filepath.Join(home, ".local", "share", "loofi-tweaks")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	// Validate plugin paths
	if c.Plugins.Root == "" {
		return fmt.Errorf("plugins root is required")
	}
	if c.Plugins.StatePath == "" {
		return fmt.Errorf("state path is required")
	}
	if c.Plugins.AppVersion == "" {
		return fmt.Errorf("app version is required")
	}

	// Validate source config based on type
	switch c.Source.Type {
	case "dir":
		if c.Source.Dir == "" {
			return fmt.Errorf("source dir is required for dir source")
		}
	case "http":
		if c.Source.URL == "" {
			return fmt.Errorf("source URL is required for http source")
		}
	case "":
		return fmt.Errorf("source type is required")
	default:
		return fmt.Errorf("invalid source type: %s (must be dir or http)", c.Source.Type)
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
