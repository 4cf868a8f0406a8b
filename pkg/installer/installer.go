package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/compat"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/observability"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/pack"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/plugins"
	"github.com/loofitheboss/loofi-fedora-tweaks-sub003/pkg/state"
)

// Result is the uniform outcome record of every lifecycle call. Lifecycle
// errors are reported here with a ready-to-display message and never
// thrown across the platform boundary.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func failure(format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

func success(message string, data map[string]any) Result {
	return Result{Success: true, Message: message, Data: data}
}

// Installer runs install/update/rollback/uninstall transactions against a
// plugin source. Operations on the same plugin id are serialized
// internally; extraction is staged and atomically relocated so a crash
// mid-install never leaves a partial plugin visible to the scanner.
type Installer struct {
	root       string
	stagingDir string
	backupDir  string
	source     Source
	gate       *compat.Gate
	store      *state.Store
	history    *History
	metrics    *observability.Metrics
	log        *logrus.Logger
	tracer     trace.Tracer

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates an Installer. history may be nil to disable audit recording;
// metrics may be nil to disable instrumentation.
func New(root, stagingDir, backupDir string, source Source, gate *compat.Gate, store *state.Store, history *History, metrics *observability.Metrics, log *logrus.Logger) *Installer {
	if log == nil {
		log = logrus.New()
	}
	return &Installer{
		root:       root,
		stagingDir: stagingDir,
		backupDir:  backupDir,
		source:     source,
		gate:       gate,
		store:      store,
		history:    history,
		metrics:    metrics,
		log:        log,
		tracer:     otel.Tracer("installer"),
		locks:      make(map[string]*sync.Mutex),
	}
}

// History exposes the audit history, nil when recording is disabled.
func (i *Installer) History() *History {
	return i.history
}

// lockID serializes lifecycle operations per plugin id.
func (i *Installer) lockID(id string) func() {
	i.locksMu.Lock()
	lock, ok := i.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		i.locks[id] = lock
	}
	i.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func (i *Installer) record(ctx context.Context, id, action, version string, res Result) Result {
	if i.history != nil {
		if err := i.history.Record(ctx, id, action, version, res.Success, res.Message); err != nil {
			i.log.WithError(err).Warn("Failed to record lifecycle history")
		}
	}
	return res
}

// observe instruments one lifecycle operation with its outcome and
// duration.
func (i *Installer) observe(action string, start time.Time, res Result) Result {
	if i.metrics != nil {
		status := "failure"
		if res.Success {
			status = "success"
		}
		i.metrics.LifecycleOperationsTotal.WithLabelValues(action, status).Inc()
		i.metrics.LifecycleDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	}
	return res
}

// Install resolves, verifies, gates, and atomically installs a plugin.
// Refuses if the plugin is already installed; a hard compatibility failure
// aborts with no state change.
func (i *Installer) Install(ctx context.Context, id string) Result {
	unlock := i.lockID(id)
	defer unlock()

	ctx, span := i.tracer.Start(ctx, "installer.Install",
		trace.WithAttributes(attribute.String("plugin.id", id)))
	defer span.End()

	start := time.Now()
	return i.observe("install", start, i.record(ctx, id, "install", "", i.install(ctx, id)))
}

func (i *Installer) install(ctx context.Context, id string) Result {
	if rec, ok := i.store.Get(id); ok {
		return failure("Plugin %s is already installed (version %s)", id, rec.Version)
	}

	archivePath, cleanup, err := i.source.Resolve(ctx, id)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return failure("Could not resolve plugin %s: %v", id, err)
	}

	p, err := pack.Load(archivePath)
	if err != nil {
		return failure("Could not read package for %s: %v", id, err)
	}
	if err := p.Verify(); err != nil {
		return failure("Package for %s failed integrity verification: %v", id, err)
	}

	if errs := plugins.ValidateManifest(p.Manifest); len(errs) > 0 {
		return failure("Packaged manifest for %s is invalid: %v", id, errs)
	}
	if p.Manifest.ID != id {
		return failure("Package manifest id %s does not match requested id %s", p.Manifest.ID, id)
	}

	if err := i.gate.CheckAppVersion(p.Manifest.MinAppVersion).Err(); err != nil {
		return failure("Plugin %s blocked: %v", id, err)
	}
	status := i.gate.Check(ctx, p.Manifest.Compatibility)
	if err := status.Err(); err != nil {
		return failure("Plugin %s blocked: %v", id, err)
	}
	for _, warning := range status.Warnings {
		i.log.Warnf("Plugin %s: %s", id, warning)
	}

	staging := filepath.Join(i.stagingDir, uuid.NewString())
	if err := p.Extract(staging); err != nil {
		return failure("Could not extract plugin %s: %v", id, err)
	}
	defer os.RemoveAll(staging)

	dest := filepath.Join(i.root, id)
	if err := os.MkdirAll(i.root, 0755); err != nil {
		return failure("Could not prepare plugins directory: %v", err)
	}
	if _, err := os.Stat(dest); err == nil {
		return failure("Plugin directory %s already exists", dest)
	}
	if err := os.Rename(staging, dest); err != nil {
		return failure("Could not install plugin %s: %v", id, err)
	}

	if err := i.store.Set(id, state.InstallRecord{
		Version:     p.Manifest.Version,
		Enabled:     true,
		InstalledAt: time.Now().UTC(),
	}); err != nil {
		// Undo the relocation so a failed state write leaves nothing behind.
		os.RemoveAll(dest)
		return failure("Could not record installation of %s: %v", id, err)
	}

	i.log.Infof("Installed plugin %s v%s", id, p.Manifest.Version)
	msg := fmt.Sprintf("Installed %s v%s", p.Manifest.Name, p.Manifest.Version)
	if len(status.Warnings) > 0 {
		msg += " (" + strings.Join(status.Warnings, "; ") + ")"
	}
	return success(msg, map[string]any{"id": id, "version": p.Manifest.Version})
}

// Uninstall removes an installed plugin, optionally copying it to a
// backup keyed by id and version first.
func (i *Installer) Uninstall(ctx context.Context, id string, createBackup bool) Result {
	unlock := i.lockID(id)
	defer unlock()

	ctx, span := i.tracer.Start(ctx, "installer.Uninstall",
		trace.WithAttributes(attribute.String("plugin.id", id)))
	defer span.End()

	start := time.Now()
	return i.observe("uninstall", start, i.record(ctx, id, "uninstall", "", i.uninstall(ctx, id, createBackup)))
}

func (i *Installer) uninstall(ctx context.Context, id string, createBackup bool) Result {
	rec, ok := i.store.Get(id)
	if !ok {
		return failure("Plugin %s is not installed", id)
	}

	dir := filepath.Join(i.root, id)

	if createBackup {
		backup := filepath.Join(i.backupDir, id+"-"+rec.Version)
		if err := os.RemoveAll(backup); err != nil {
			return failure("Could not clear previous backup for %s: %v", id, err)
		}
		if err := copyDir(dir, backup); err != nil {
			return failure("Could not back up plugin %s: %v", id, err)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return failure("Could not remove plugin %s: %v", id, err)
	}
	if err := i.store.Delete(id); err != nil {
		return failure("Could not update state after removing %s: %v", id, err)
	}

	i.log.Infof("Uninstalled plugin %s v%s", id, rec.Version)
	return success(fmt.Sprintf("Uninstalled %s v%s", id, rec.Version),
		map[string]any{"id": id, "version": rec.Version})
}

// Update compares the installed version against the version the source
// offers. It reports availability without side effects; ApplyUpdate
// performs the actual upgrade.
func (i *Installer) Update(ctx context.Context, id string) Result {
	unlock := i.lockID(id)
	defer unlock()

	start := time.Now()
	return i.observe("check", start, i.update(ctx, id))
}

func (i *Installer) update(ctx context.Context, id string) Result {
	rec, ok := i.store.Get(id)
	if !ok {
		return failure("Plugin %s is not installed", id)
	}

	offered, err := i.source.Available(ctx, id)
	if err != nil {
		return failure("Could not check updates for %s: %v", id, err)
	}

	available := compat.CompareVersions(offered, rec.Version) > 0
	msg := fmt.Sprintf("Plugin %s is up to date (v%s)", id, rec.Version)
	if available {
		msg = fmt.Sprintf("Update available for %s: v%s -> v%s", id, rec.Version, offered)
	}

	return success(msg, map[string]any{
		"id":               id,
		"current":          rec.Version,
		"offered":          offered,
		"update_available": available,
	})
}

// ApplyUpdate upgrades an installed plugin to the source's offered
// version, backing up the current install first.
func (i *Installer) ApplyUpdate(ctx context.Context, id string) Result {
	unlock := i.lockID(id)
	defer unlock()

	ctx, span := i.tracer.Start(ctx, "installer.ApplyUpdate",
		trace.WithAttributes(attribute.String("plugin.id", id)))
	defer span.End()

	start := time.Now()
	return i.observe("update", start, i.applyUpdate(ctx, id))
}

func (i *Installer) applyUpdate(ctx context.Context, id string) Result {
	rec, ok := i.store.Get(id)
	if !ok {
		return i.record(ctx, id, "update", "", failure("Plugin %s is not installed", id))
	}

	offered, err := i.source.Available(ctx, id)
	if err != nil {
		return i.record(ctx, id, "update", "", failure("Could not check updates for %s: %v", id, err))
	}
	if compat.CompareVersions(offered, rec.Version) <= 0 {
		return i.record(ctx, id, "update", rec.Version,
			success(fmt.Sprintf("Plugin %s is up to date (v%s)", id, rec.Version), nil))
	}

	if res := i.uninstall(ctx, id, true); !res.Success {
		return i.record(ctx, id, "update", rec.Version, res)
	}

	res := i.install(ctx, id)
	if !res.Success {
		// Restore the backup so a failed upgrade leaves the previous
		// version installed.
		if rb := i.rollback(ctx, id); !rb.Success {
			i.log.Errorf("Update of %s failed and rollback also failed: %s", id, rb.Message)
		}
		return i.record(ctx, id, "update", offered, res)
	}

	return i.record(ctx, id, "update", offered,
		success(fmt.Sprintf("Updated %s: v%s -> v%s", id, rec.Version, offered), res.Data))
}

// Rollback restores the most recent backup for a plugin id. With no
// backups it fails explicitly and performs no filesystem mutation.
func (i *Installer) Rollback(ctx context.Context, id string) Result {
	unlock := i.lockID(id)
	defer unlock()

	ctx, span := i.tracer.Start(ctx, "installer.Rollback",
		trace.WithAttributes(attribute.String("plugin.id", id)))
	defer span.End()

	start := time.Now()
	return i.observe("rollback", start, i.record(ctx, id, "rollback", "", i.rollback(ctx, id)))
}

func (i *Installer) rollback(ctx context.Context, id string) Result {
	backup, version, err := i.latestBackup(id)
	if err != nil {
		return failure("No backup available for plugin %s", id)
	}

	staging := filepath.Join(i.stagingDir, uuid.NewString())
	if err := copyDir(backup, staging); err != nil {
		return failure("Could not stage backup of %s: %v", id, err)
	}
	defer os.RemoveAll(staging)

	dest := filepath.Join(i.root, id)
	if err := os.RemoveAll(dest); err != nil {
		return failure("Could not clear plugin directory for %s: %v", id, err)
	}
	if err := os.MkdirAll(i.root, 0755); err != nil {
		return failure("Could not prepare plugins directory: %v", err)
	}
	if err := os.Rename(staging, dest); err != nil {
		return failure("Could not restore plugin %s: %v", id, err)
	}

	if err := i.store.Set(id, state.InstallRecord{
		Version:     version,
		Enabled:     true,
		InstalledAt: time.Now().UTC(),
	}); err != nil {
		return failure("Could not record rollback of %s: %v", id, err)
	}

	i.log.Infof("Rolled back plugin %s to v%s", id, version)
	return success(fmt.Sprintf("Restored %s v%s from backup", id, version),
		map[string]any{"id": id, "version": version})
}

// latestBackup finds the most recent backup directory for an id and the
// version encoded in its name.
func (i *Installer) latestBackup(id string) (string, string, error) {
	entries, err := os.ReadDir(i.backupDir)
	if err != nil {
		return "", "", err
	}

	prefix := id + "-"
	var candidates []os.DirEntry
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			candidates = append(candidates, entry)
		}
	}
	if len(candidates) == 0 {
		return "", "", &plugins.NotFoundError{ID: id}
	}

	sort.Slice(candidates, func(a, b int) bool {
		ia, _ := candidates[a].Info()
		ib, _ := candidates[b].Info()
		if ia != nil && ib != nil && !ia.ModTime().Equal(ib.ModTime()) {
			return ia.ModTime().After(ib.ModTime())
		}
		// Backups within the filesystem's mtime granularity tie; the
		// higher version encoded in the name wins.
		va := strings.TrimPrefix(candidates[a].Name(), prefix)
		vb := strings.TrimPrefix(candidates[b].Name(), prefix)
		return compat.CompareVersions(va, vb) > 0
	})

	name := candidates[0].Name()
	return filepath.Join(i.backupDir, name), strings.TrimPrefix(name, prefix), nil
}

// copyDir copies a directory tree, preserving relative layout.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()

		if _, err := io.Copy(out, in); err != nil {
			return err
		}
		return out.Close()
	})
}
