package plugins

import (
	"context"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/compat"
)

// Adapter defaults for legacy plugins that supply no manifest of their own.
const (
	legacyCategory = "Community"
	legacyBadge    = "community"
	legacyOrder    = 500
)

// Adapter exposes a legacy plugin through the native plugin interface. It
// is a stateless translation layer: the metadata record is synthesized
// once from the legacy identity bundle.
type Adapter struct {
	legacy   LegacyPlugin
	manifest *Manifest
}

// NewAdapter wraps a legacy plugin. When the legacy plugin supplies its own
// manifest that manifest wins; otherwise one is synthesized from the
// identity bundle with category "Community".
func NewAdapter(legacy LegacyPlugin) *Adapter {
	if provider, ok := legacy.(LegacyManifestProvider); ok {
		if m := provider.LegacyManifest(); m != nil {
			return &Adapter{legacy: legacy, manifest: m}
		}
	}

	info := legacy.Info()
	manifest := &Manifest{
		ID:          slugify(info.Name),
		Name:        info.Name,
		Version:     info.Version,
		Description: info.Description,
		Author:      info.Author,
		Entry:       "legacy",
		Icon:        info.Icon,
		Category:    legacyCategory,
	}
	if requirer, ok := legacy.(LegacyVersionRequirer); ok {
		manifest.MinAppVersion = requirer.MinAppVersion()
	}

	return &Adapter{legacy: legacy, manifest: manifest}
}

// Manifest implements Plugin.
func (a *Adapter) Manifest() *Manifest {
	return a.manifest
}

// Load implements Plugin. Legacy plugins have no load phase of their own.
func (a *Adapter) Load() error {
	return nil
}

// Unload implements Plugin.
func (a *Adapter) Unload() error {
	return nil
}

// Metadata implements MetadataProvider with the community defaults.
func (a *Adapter) Metadata() Metadata {
	return Metadata{
		ID:       a.manifest.ID,
		Name:     a.manifest.Name,
		Category: a.manifest.Category,
		Icon:     a.manifest.Icon,
		Badge:    legacyBadge,
		Order:    legacyOrder,
	}
}

// Legacy returns the wrapped legacy plugin.
func (a *Adapter) Legacy() LegacyPlugin {
	return a.legacy
}

// CreateWidget forwards to the legacy widget factory.
func (a *Adapter) CreateWidget() (any, error) {
	return a.legacy.CreateWidget()
}

// Commands forwards to the legacy command map.
func (a *Adapter) Commands() map[string]func(ctx context.Context) error {
	return a.legacy.Commands()
}

// CheckCompat bridges the legacy plugin to the compatibility gate using its
// declared minimum application version, if any.
func (a *Adapter) CheckCompat(gate *compat.Gate) compat.Status {
	return gate.CheckAppVersion(a.manifest.MinAppVersion)
}

// slugify turns a display name into a filesystem-safe plugin id.
func slugify(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ', r == '_', r == '-':
			if len(out) > 0 && out[len(out)-1] != '-' {
				out = append(out, '-')
			}
		}
	}
	// Trim a trailing separator left by odd names.
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return "legacy-plugin"
	}
	return string(out)
}
