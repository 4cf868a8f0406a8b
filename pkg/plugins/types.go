package plugins

import (
	"context"
	"time"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/compat"
)

// Plugin is the base interface all plugins must implement
type Plugin interface {
	Manifest() *Manifest
	Load() error
	Unload() error
}

// Manifest describes plugin identity and its capability declaration
type Manifest struct {
	ID            string       `yaml:"id"`                        // Unique, filesystem-safe ID (e.g., "grub-theme-switcher")
	Name          string       `yaml:"name"`                      // Display name
	Version       string       `yaml:"version"`                   // Semver
	Description   string       `yaml:"description"`               // Short description
	Author        string       `yaml:"author"`                    // Author name
	Entry         string       `yaml:"entry"`                     // Relative path to the code unit to execute
	Email         string       `yaml:"email,omitempty"`           // Author contact
	License       string       `yaml:"license,omitempty"`         // License (e.g., MIT, GPL-3.0)
	Homepage      string       `yaml:"homepage,omitempty"`        // Homepage URL
	Icon          string       `yaml:"icon,omitempty"`            // Icon name or relative path
	Category      string       `yaml:"category,omitempty"`        // Display category
	Capabilities  []string     `yaml:"capabilities,omitempty"`    // Requested capability names
	Dependencies  []string     `yaml:"dependencies,omitempty"`    // Dependency specs
	MinAppVersion string       `yaml:"min_app_version,omitempty"` // Minimum compatible application version
	Compatibility *compat.Spec `yaml:"compatibility,omitempty"`   // Host-compatibility spec
}

// Metadata is the display record exposed to the host for one plugin
type Metadata struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Icon     string `json:"icon"`
	Badge    string `json:"badge"`
	Order    int    `json:"order"`
}

// PluginInfo contains runtime information about a loaded plugin
type PluginInfo struct {
	Manifest  *Manifest
	LoadedAt  time.Time
	IsEnabled bool
	Source    string // filesystem, archive, legacy
}

// LegacyInfo is the bundled identity record a legacy plugin exposes in
// place of a manifest
type LegacyInfo struct {
	Name        string
	Version     string
	Author      string
	Description string
	Icon        string
}

// LegacyPlugin is the duck-typed interface of pre-platform plugins: an
// identity bundle plus widget and command factories, with no capability
// declarations
type LegacyPlugin interface {
	Info() LegacyInfo
	CreateWidget() (any, error)
	Commands() map[string]func(ctx context.Context) error
}

// LegacyManifestProvider is optionally implemented by legacy plugins that
// ship their own manifest
type LegacyManifestProvider interface {
	LegacyManifest() *Manifest
}

// LegacyVersionRequirer is optionally implemented by legacy plugins that
// declare a minimum application version
type LegacyVersionRequirer interface {
	MinAppVersion() string
}

// MetadataProvider is optionally implemented by plugins that control their
// own display record
type MetadataProvider interface {
	Metadata() Metadata
}

// ValidationError represents a manifest validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NotFoundError reports an unknown plugin id on lifecycle operations
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return "plugin not found: " + e.ID
}
