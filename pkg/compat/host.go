package compat

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	defaultReleaseFile  = "/etc/os-release"
	defaultQueryTimeout = 5 * time.Second
	packageCacheSize    = 256
)

// knownDesktops is the closed set of normalized desktop identifiers.
// Anything present but unrecognized maps to "other"; absent maps to "unknown".
var knownDesktops = []string{"gnome", "kde", "xfce", "cinnamon", "mate", "lxqt"}

// PackageQuerier checks whether a package is installed on the host.
// The default implementation shells out to rpm with a bounded timeout.
type PackageQuerier func(ctx context.Context, name string) (bool, error)

// Host exposes cached, lazily-computed facts about the running system.
// All facts are computed at most once per process; package lookups are
// cached per name and deduplicated across concurrent callers.
type Host struct {
	releaseFile  string
	queryTimeout time.Duration
	query        PackageQuerier
	queryHook    func(result string)
	log          *logrus.Logger

	versionOnce sync.Once
	version     int

	desktopOnce sync.Once
	desktop     string

	sessionOnce sync.Once
	wayland     bool

	pkgCache *lru.Cache[string, bool]
	pkgGroup singleflight.Group
}

// HostOption customizes a Host, mainly for tests.
type HostOption func(*Host)

// WithReleaseFile overrides the os-release file path.
func WithReleaseFile(path string) HostOption {
	return func(h *Host) { h.releaseFile = path }
}

// WithPackageQuerier overrides the package-database query.
func WithPackageQuerier(q PackageQuerier) HostOption {
	return func(h *Host) { h.query = q }
}

// WithQueryTimeout bounds each package-database query.
func WithQueryTimeout(d time.Duration) HostOption {
	return func(h *Host) { h.queryTimeout = d }
}

// NewHost creates a Host with lazily-computed facts.
func NewHost(log *logrus.Logger, opts ...HostOption) *Host {
	if log == nil {
		log = logrus.New()
	}

	cache, _ := lru.New[string, bool](packageCacheSize)

	h := &Host{
		releaseFile:  defaultReleaseFile,
		queryTimeout: defaultQueryTimeout,
		log:          log,
		pkgCache:     cache,
	}
	h.query = h.rpmQuery

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// SetQueryHook registers a callback invoked once per package-database
// query with its outcome: installed, missing, or error. Cache hits do not
// fire the hook.
func (h *Host) SetQueryHook(hook func(result string)) {
	h.queryHook = hook
}

// FedoraVersion returns the detected host release version, parsed from the
// os-release file. Returns 0 if the version cannot be determined.
func (h *Host) FedoraVersion() int {
	h.versionOnce.Do(func() {
		h.version = h.detectVersion()
	})
	return h.version
}

// Desktop returns the normalized desktop-environment identifier.
func (h *Host) Desktop() string {
	h.desktopOnce.Do(func() {
		h.desktop = normalizeDesktop(os.Getenv("XDG_CURRENT_DESKTOP"))
	})
	return h.desktop
}

// IsWayland reports whether the session runs under a Wayland compositor.
func (h *Host) IsWayland() bool {
	h.sessionOnce.Do(func() {
		h.wayland = strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland")
	})
	return h.wayland
}

// PackageInstalled reports whether the named package is installed. Results
// are cached for the process lifetime; query failures fail closed.
func (h *Host) PackageInstalled(ctx context.Context, name string) bool {
	if installed, ok := h.pkgCache.Get(name); ok {
		return installed
	}

	result, err, _ := h.pkgGroup.Do(name, func() (interface{}, error) {
		queryCtx, cancel := context.WithTimeout(ctx, h.queryTimeout)
		defer cancel()

		installed, err := h.query(queryCtx, name)
		outcome := "missing"
		if installed {
			outcome = "installed"
		}
		if err != nil {
			h.log.WithError(err).Warnf("Package query failed for %s, treating as not installed", name)
			installed = false
			outcome = "error"
		}
		if h.queryHook != nil {
			h.queryHook(outcome)
		}

		h.pkgCache.Add(name, installed)
		return installed, nil
	})
	if err != nil {
		return false
	}

	return result.(bool)
}

func (h *Host) detectVersion() int {
	f, err := os.Open(h.releaseFile)
	if err != nil {
		h.log.WithError(err).Debugf("Cannot read release file %s", h.releaseFile)
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "VERSION_ID=") {
			continue
		}
		value := strings.Trim(strings.TrimPrefix(line, "VERSION_ID="), `"`)
		// VERSION_ID may carry a point release (e.g. "41.1").
		if dot := strings.IndexByte(value, '.'); dot >= 0 {
			value = value[:dot]
		}
		version, err := strconv.Atoi(value)
		if err != nil {
			h.log.Warnf("Unparseable VERSION_ID %q in %s", value, h.releaseFile)
			return 0
		}
		return version
	}

	return 0
}

func (h *Host) rpmQuery(ctx context.Context, name string) (bool, error) {
	cmd := exec.CommandContext(ctx, "rpm", "-q", name)
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// rpm exits non-zero when the package is not installed.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func normalizeDesktop(raw string) string {
	if raw == "" {
		return "unknown"
	}

	// XDG_CURRENT_DESKTOP may be a colon-separated list (e.g. "ubuntu:GNOME").
	for _, part := range strings.Split(strings.ToLower(raw), ":") {
		for _, known := range knownDesktops {
			if strings.Contains(part, known) {
				return known
			}
		}
	}

	return "other"
}
