package config

import (
	"os"
	"testing"
	"time"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
	}{
		{
			name:         "returns env value when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
		},
		{
			name:         "returns default when env not set",
			key:          "TEST_VAR_NOT_SET",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		defaultValue bool
		envValue     string
		want         bool
	}{
		{name: "true string", envValue: "true", want: true},
		{name: "one string", envValue: "1", want: true},
		{name: "false string", envValue: "false", defaultValue: true, want: false},
		{name: "unset uses default", envValue: "", defaultValue: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_BOOL_VAR", tt.envValue)
				defer os.Unsetenv("TEST_BOOL_VAR")
			}

			got := getEnvBool("TEST_BOOL_VAR", tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	os.Setenv("TEST_DURATION_VAR", "45s")
	defer os.Unsetenv("TEST_DURATION_VAR")

	if got := getEnvDuration("TEST_DURATION_VAR", time.Minute); got != 45*time.Second {
		t.Errorf("getEnvDuration() = %v, want 45s", got)
	}
	if got := getEnvDuration("TEST_DURATION_UNSET", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration() = %v, want 1m", got)
	}

	os.Setenv("TEST_DURATION_BAD", "not-a-duration")
	defer os.Unsetenv("TEST_DURATION_BAD")
	if got := getEnvDuration("TEST_DURATION_BAD", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration() with invalid value = %v, want default", got)
	}
}

// TestLoadConfig tests loading with defaults
func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port == "" {
		t.Error("expected default server port")
	}
	if cfg.Plugins.Root == "" {
		t.Error("expected default plugins root")
	}
	if cfg.Source.Type != "dir" {
		t.Errorf("default source type = %q, want dir", cfg.Source.Type)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("default log level = %q, want info", cfg.Observability.LogLevel)
	}
}

// TestLoadConfig_Overrides tests env overrides
func TestLoadConfig_Overrides(t *testing.T) {
	os.Setenv("TWEAKS_PLUGINS_ROOT", "/opt/tweaks/plugins")
	os.Setenv("TWEAKS_SOURCE_TYPE", "http")
	os.Setenv("TWEAKS_SOURCE_URL", "https://plugins.example.org")
	defer func() {
		os.Unsetenv("TWEAKS_PLUGINS_ROOT")
		os.Unsetenv("TWEAKS_SOURCE_TYPE")
		os.Unsetenv("TWEAKS_SOURCE_URL")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Plugins.Root != "/opt/tweaks/plugins" {
		t.Errorf("plugins root = %q", cfg.Plugins.Root)
	}
	if cfg.Source.URL != "https://plugins.example.org" {
		t.Errorf("source URL = %q", cfg.Source.URL)
	}
}

// TestValidate tests configuration validation failures
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }},
		{name: "same ports", mutate: func(c *Config) { c.Server.HealthPort = c.Server.Port }},
		{name: "missing plugins root", mutate: func(c *Config) { c.Plugins.Root = "" }},
		{name: "http source without URL", mutate: func(c *Config) {
			c.Source.Type = "http"
			c.Source.URL = ""
		}},
		{name: "unknown source type", mutate: func(c *Config) { c.Source.Type = "ftp" }},
		{name: "otel enabled without endpoint", mutate: func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelEndpoint = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}

			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}
