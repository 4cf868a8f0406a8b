// Package state persists the install records that decide whether a plugin
// is currently active. The state file is the single source of truth for
// installed versions and the enabled/disabled flag; an unreadable file is
// treated as an empty state, never a crash.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// InstallRecord is persisted per plugin id. It is destroyed on uninstall.
type InstallRecord struct {
	Version     string    `yaml:"version"`
	Enabled     bool      `yaml:"enabled"`
	InstalledAt time.Time `yaml:"installed_at"`
}

// CorruptionError reports an unreadable state file. Callers continue with
// an empty state.
type CorruptionError struct {
	Path string
	Err  error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("state file %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

// Store reads and writes the plugin state file. Writes are last-writer-wins;
// callers must serialize mutations per plugin id.
type Store struct {
	path string
	log  *logrus.Logger

	mu      sync.RWMutex
	records map[string]InstallRecord
}

// NewStore opens the state file at path, creating an empty store when the
// file does not exist and recovering to an empty store when it is corrupt.
func NewStore(path string, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
	}

	s := &Store{
		path:    path,
		log:     log,
		records: make(map[string]InstallRecord),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warnf("Cannot read state file %s, starting empty", path)
		}
		return s
	}

	if err := yaml.Unmarshal(data, &s.records); err != nil {
		log.WithError(&CorruptionError{Path: path, Err: err}).
			Warn("State file unreadable, starting empty")
		s.records = make(map[string]InstallRecord)
	}

	return s
}

// Get returns the record for a plugin id.
func (s *Store) Get(id string) (InstallRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	return rec, ok
}

// Enabled reports whether a plugin is active. A plugin absent from the
// state file defaults to enabled.
func (s *Store) Enabled(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return true
	}
	return rec.Enabled
}

// Set writes a record and persists the store.
func (s *Store) Set(id string, rec InstallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[id] = rec
	return s.save()
}

// SetEnabled flips the enabled flag for an existing record. Setting the
// flag for an unknown id creates a record with an empty version.
func (s *Store) SetEnabled(id string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[id]
	rec.Enabled = enabled
	s.records[id] = rec
	return s.save()
}

// Delete removes a record and persists the store.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return s.save()
}

// All returns a copy of every record.
func (s *Store) All() map[string]InstallRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]InstallRecord, len(s.records))
	for id, rec := range s.records {
		out[id] = rec
	}
	return out
}

// IDs returns all recorded plugin ids in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// save writes the state file atomically. Callers hold s.mu.
func (s *Store) save() error {
	data, err := yaml.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
