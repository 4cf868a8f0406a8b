// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	TWEAKS_HOST="127.0.0.1"
//	TWEAKS_PORT="8815"
//	TWEAKS_HEALTH_PORT="9815"
//	TWEAKS_READ_TIMEOUT="15s"
//	TWEAKS_WRITE_TIMEOUT="15s"
//
// Plugin platform settings:
//
//	TWEAKS_DATA_DIR="~/.local/share/loofi-tweaks"
//	TWEAKS_PLUGINS_ROOT="$TWEAKS_DATA_DIR/plugins"
//	TWEAKS_STATE_PATH="$TWEAKS_DATA_DIR/plugins_state.yaml"
//	TWEAKS_APP_VERSION="1.0.0"
//	TWEAKS_WATCH_ENABLED="true"
//	TWEAKS_UPDATE_CHECK_SCHEDULE="@every 6h"
//
// Source settings:
//
//	TWEAKS_SOURCE_TYPE="dir"  # dir, http
//	TWEAKS_SOURCE_DIR="$TWEAKS_DATA_DIR/repo"
//	TWEAKS_SOURCE_URL="https://plugins.example.org"
//	TWEAKS_SOURCE_TIMEOUT="30s"
//
// Observability settings:
//
//	TWEAKS_LOG_LEVEL="info"  # debug, info, warn, error
//	TWEAKS_METRICS_ENABLED="true"
//	TWEAKS_OTEL_ENABLED="false"
//	TWEAKS_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Plugins root: %s\n", cfg.Plugins.Root)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
//
// # Related Packages
//
//   - pkg/platform: Uses plugin platform configuration
//   - pkg/observability: Uses observability configuration
package config
