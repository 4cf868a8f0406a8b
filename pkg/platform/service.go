package platform

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/compat"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/installer"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/observability"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/plugins"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/sandbox"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/state"
)

// Service composes discovery, gating, sandboxing, and lifecycle into the
// plugin platform the host application talks to. Load operations are
// serialized internally so concurrent loads cannot interleave guard
// wrapping.
type Service struct {
	scanner   *plugins.Scanner
	gate      *compat.Gate
	guard     *sandbox.Guard
	installer *installer.Installer
	store     *state.Store
	metrics   *observability.Metrics
	log       *logrus.Logger
	tracer    trace.Tracer

	loadMu sync.Mutex
}

// NewService creates the platform service. metrics may be nil to disable
// instrumentation.
func NewService(scanner *plugins.Scanner, gate *compat.Gate, guard *sandbox.Guard, inst *installer.Installer, store *state.Store, metrics *observability.Metrics, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}

	s := &Service{
		scanner:   scanner,
		gate:      gate,
		guard:     guard,
		installer: inst,
		store:     store,
		metrics:   metrics,
		log:       log,
		tracer:    otel.Tracer("platform"),
	}

	if metrics != nil {
		guard.SetDenyHook(func(e *sandbox.PermissionDeniedError) {
			metrics.SandboxDenialsTotal.WithLabelValues(string(e.Capability)).Inc()
		})
	}

	return s
}

// Installer exposes the lifecycle component for the admin surface.
func (s *Service) Installer() *installer.Installer {
	return s.installer
}

// LoadAll scans the plugins root and loads every enabled, compatible
// plugin that is not already registered. Returns the number of plugins
// loaded by this call.
func (s *Service) LoadAll(ctx context.Context) (int, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "platform.LoadAll")
	defer span.End()

	return s.loadAll(ctx)
}

func (s *Service) loadAll(ctx context.Context) (int, error) {
	start := time.Now()
	discovered, err := s.scanner.Scan()
	if s.metrics != nil {
		s.metrics.ScansTotal.Inc()
		s.metrics.ScanDuration.Observe(time.Since(start).Seconds())
		s.metrics.PluginsDiscovered.Set(float64(len(discovered)))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to scan plugins root: %w", err)
	}

	loaded := 0
	for _, d := range discovered {
		id := d.Manifest.ID
		if plugins.Has(id) {
			continue
		}
		if !s.admit(ctx, d.Manifest) {
			continue
		}

		// One plugin loads at a time; the guard frames exactly its
		// load window.
		policy := s.guard.Wrap(id, d.Manifest.Capabilities)
		env := sandbox.NewEnv(policy, d.Dir)
		p := newFilePlugin(d.Manifest, d.Dir, env)
		err := p.Load()
		s.guard.Unwrap()
		if err != nil {
			s.log.WithError(err).Warnf("Skipping plugin %s: load failed", id)
			continue
		}

		if err := plugins.Register(p); err != nil {
			s.log.WithError(err).Warnf("Skipping plugin %s: registration failed", id)
			continue
		}

		s.log.Infof("Loaded plugin %s v%s", id, d.Manifest.Version)
		loaded++
	}

	if s.metrics != nil {
		s.metrics.PluginsLoaded.Set(float64(plugins.Count()))
	}
	return loaded, nil
}

// admit runs both compatibility gates and records the decision. Warnings
// never block.
func (s *Service) admit(ctx context.Context, m *plugins.Manifest) bool {
	status := s.gate.CheckAppVersion(m.MinAppVersion)
	if status.Compatible {
		status = s.gate.Check(ctx, m.Compatibility)
	}

	if s.metrics != nil {
		outcome := "compatible"
		if !status.Compatible {
			outcome = "incompatible"
		}
		s.metrics.GateDecisionsTotal.WithLabelValues(outcome).Inc()
	}

	if !status.Compatible {
		s.log.Warnf("Plugin %s not loaded: %s", m.ID, status.Reason)
		return false
	}
	for _, warning := range status.Warnings {
		s.log.Warnf("Plugin %s: %s", m.ID, warning)
	}
	return true
}

// UnloadAll unloads and unregisters every plugin.
func (s *Service) UnloadAll() {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	s.unloadAll()
}

func (s *Service) unloadAll() {
	for _, p := range plugins.List() {
		if err := p.Unload(); err != nil {
			s.log.WithError(err).Warnf("Failed to unload plugin %s", p.Manifest().ID)
		}
	}
	plugins.Clear()

	if s.metrics != nil {
		s.metrics.PluginsLoaded.Set(0)
	}
}

// Reload unloads everything and rescans.
func (s *Service) Reload(ctx context.Context) (int, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "platform.Reload")
	defer span.End()

	s.unloadAll()
	return s.loadAll(ctx)
}

// Install installs a plugin and loads it when compatible and enabled.
func (s *Service) Install(ctx context.Context, id string) installer.Result {
	res := s.installer.Install(ctx, id)
	if res.Success {
		if _, err := s.LoadAll(ctx); err != nil {
			s.log.WithError(err).Warn("Reload after install failed")
		}
	}
	return res
}

// Uninstall removes a plugin and drops it from the registry.
func (s *Service) Uninstall(ctx context.Context, id string, createBackup bool) installer.Result {
	res := s.installer.Uninstall(ctx, id, createBackup)
	if res.Success {
		s.dropFromRegistry(id)
	}
	return res
}

// CheckUpdate reports update availability without side effects.
func (s *Service) CheckUpdate(ctx context.Context, id string) installer.Result {
	return s.installer.Update(ctx, id)
}

// ApplyUpdate upgrades a plugin and reloads the registry.
func (s *Service) ApplyUpdate(ctx context.Context, id string) installer.Result {
	res := s.installer.ApplyUpdate(ctx, id)
	if res.Success {
		if _, err := s.Reload(ctx); err != nil {
			s.log.WithError(err).Warn("Reload after update failed")
		}
	}
	return res
}

// Rollback restores a plugin from backup and reloads the registry.
func (s *Service) Rollback(ctx context.Context, id string) installer.Result {
	res := s.installer.Rollback(ctx, id)
	if res.Success {
		if _, err := s.Reload(ctx); err != nil {
			s.log.WithError(err).Warn("Reload after rollback failed")
		}
	}
	return res
}

func (s *Service) dropFromRegistry(id string) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	p, err := plugins.Get(id)
	if err != nil {
		return
	}
	if err := p.Unload(); err != nil {
		s.log.WithError(err).Warnf("Failed to unload plugin %s", id)
	}
	if err := plugins.Unregister(id); err != nil {
		s.log.WithError(err).Warnf("Failed to unregister plugin %s", id)
	}
	if s.metrics != nil {
		s.metrics.PluginsLoaded.Set(float64(plugins.Count()))
	}
}

// Enable marks an installed plugin enabled and loads it.
func (s *Service) Enable(ctx context.Context, id string) installer.Result {
	if _, ok := s.store.Get(id); !ok {
		return installer.Result{Message: fmt.Sprintf("Plugin %s is not installed", id)}
	}
	if err := s.store.SetEnabled(id, true); err != nil {
		return installer.Result{Message: fmt.Sprintf("Could not enable %s: %v", id, err)}
	}

	if _, err := s.LoadAll(ctx); err != nil {
		return installer.Result{Message: fmt.Sprintf("Enabled %s but reload failed: %v", id, err)}
	}
	return installer.Result{Success: true, Message: fmt.Sprintf("Enabled %s", id)}
}

// Disable marks an installed plugin disabled and unloads it if loaded.
func (s *Service) Disable(ctx context.Context, id string) installer.Result {
	if _, ok := s.store.Get(id); !ok {
		return installer.Result{Message: fmt.Sprintf("Plugin %s is not installed", id)}
	}
	if err := s.store.SetEnabled(id, false); err != nil {
		return installer.Result{Message: fmt.Sprintf("Could not disable %s: %v", id, err)}
	}

	s.dropFromRegistry(id)
	return installer.Result{Success: true, Message: fmt.Sprintf("Disabled %s", id)}
}

// exportDoc is the serialized enabled-set document.
type exportDoc struct {
	Plugins []exportEntry `yaml:"plugins"`
}

type exportEntry struct {
	ID      string `yaml:"id"`
	Version string `yaml:"version"`
	Enabled bool   `yaml:"enabled"`
}

// ExportEnabled writes the installed set with enablement flags to path.
func (s *Service) ExportEnabled(path string) installer.Result {
	var doc exportDoc
	for id, rec := range s.store.All() {
		doc.Plugins = append(doc.Plugins, exportEntry{
			ID:      id,
			Version: rec.Version,
			Enabled: rec.Enabled,
		})
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return installer.Result{Message: fmt.Sprintf("Could not serialize plugin set: %v", err)}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return installer.Result{Message: fmt.Sprintf("Could not write %s: %v", path, err)}
	}

	return installer.Result{
		Success: true,
		Message: fmt.Sprintf("Exported %d plugins to %s", len(doc.Plugins), path),
		Data:    map[string]any{"count": len(doc.Plugins)},
	}
}

// ImportEnabled applies enablement flags from a previously exported
// document. Entries for plugins that are not installed are reported, not
// installed implicitly.
func (s *Service) ImportEnabled(ctx context.Context, path string) installer.Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return installer.Result{Message: fmt.Sprintf("Could not read %s: %v", path, err)}
	}

	var doc exportDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return installer.Result{Message: fmt.Sprintf("Could not parse %s: %v", path, err)}
	}

	applied := 0
	var missing []string
	for _, entry := range doc.Plugins {
		if _, ok := s.store.Get(entry.ID); !ok {
			missing = append(missing, entry.ID)
			continue
		}
		if err := s.store.SetEnabled(entry.ID, entry.Enabled); err != nil {
			return installer.Result{Message: fmt.Sprintf("Could not apply %s: %v", entry.ID, err)}
		}
		applied++
	}

	if _, err := s.Reload(ctx); err != nil {
		return installer.Result{Message: fmt.Sprintf("Imported but reload failed: %v", err)}
	}

	msg := fmt.Sprintf("Imported %d plugins", applied)
	if len(missing) > 0 {
		msg = fmt.Sprintf("Imported %d plugins, %d not installed", applied, len(missing))
	}
	return installer.Result{
		Success: true,
		Message: msg,
		Data:    map[string]any{"applied": applied, "missing": missing},
	}
}
