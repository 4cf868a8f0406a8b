package plugins

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/state"
)

// Discovered is one valid, enabled plugin found under the plugins root.
type Discovered struct {
	Dir      string
	Manifest *Manifest
}

// Scanner enumerates plugin directories, validates their manifests, and
// cross-references the state store. One bad plugin never aborts the scan
// of the rest.
type Scanner struct {
	root  string
	store *state.Store
	log   *logrus.Logger
}

// NewScanner creates a scanner over a plugins root.
func NewScanner(root string, store *state.Store, log *logrus.Logger) *Scanner {
	if log == nil {
		log = logrus.New()
	}
	return &Scanner{
		root:  root,
		store: store,
		log:   log,
	}
}

// Root returns the plugins root directory.
func (s *Scanner) Root() string {
	return s.root
}

// Scan returns an ordered list of every discovered, valid, and enabled
// plugin. Malformed manifests and explicitly disabled plugins are skipped.
func (s *Scanner) Scan() ([]Discovered, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Debugf("Plugins root does not exist: %s", s.root)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plugins root: %w", err)
	}

	var found []Discovered
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(s.root, entry.Name())
		manifest, err := LoadManifestFromDir(dir)
		if err != nil {
			s.log.WithError(err).Warnf("Skipping plugin directory %s", dir)
			continue
		}

		if errs := ValidateManifest(manifest); len(errs) > 0 {
			s.log.Warnf("Skipping plugin %s: manifest validation failed: %v", entry.Name(), errs)
			continue
		}

		if s.store != nil && !s.store.Enabled(manifest.ID) {
			s.log.Debugf("Skipping disabled plugin %s", manifest.ID)
			continue
		}

		found = append(found, Discovered{Dir: dir, Manifest: manifest})
	}

	return found, nil
}
