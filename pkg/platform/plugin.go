package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/plugins"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/sandbox"
)

// filePlugin is a plugin backed by an installed directory under the
// plugins root. Its capability environment is scoped to that directory.
type filePlugin struct {
	manifest *plugins.Manifest
	dir      string
	env      *sandbox.Env

	mu     sync.Mutex
	loaded bool
}

func newFilePlugin(manifest *plugins.Manifest, dir string, env *sandbox.Env) *filePlugin {
	return &filePlugin{manifest: manifest, dir: dir, env: env}
}

func (p *filePlugin) Manifest() *plugins.Manifest {
	return p.manifest
}

// Load verifies the plugin's entry unit exists. Capability checks for the
// entry's module surface run under the guard held by the caller.
func (p *filePlugin) Load() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded {
		return nil
	}

	entry := filepath.Join(p.dir, p.manifest.Entry)
	if _, err := os.Stat(entry); err != nil {
		return fmt.Errorf("entry %s missing: %w", p.manifest.Entry, err)
	}

	p.loaded = true
	return nil
}

func (p *filePlugin) Unload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = false
	return nil
}

// Env exposes the capability-gated environment for this plugin.
func (p *filePlugin) Env() *sandbox.Env {
	return p.env
}

// Dir returns the plugin's installed directory.
func (p *filePlugin) Dir() string {
	return p.dir
}
