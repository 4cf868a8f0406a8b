package compat

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var versionRegex = regexp.MustCompile(`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

// Gate decides whether a plugin may load or install on the current host.
// Host facts are evaluated lazily; an empty spec is always compatible.
type Gate struct {
	host       *Host
	appVersion string
	log        *logrus.Logger
}

// NewGate creates a Gate bound to a Host and the running application version.
func NewGate(host *Host, appVersion string, log *logrus.Logger) *Gate {
	if log == nil {
		log = logrus.New()
	}
	return &Gate{
		host:       host,
		appVersion: appVersion,
		log:        log,
	}
}

// Host returns the underlying host facts.
func (g *Gate) Host() *Host {
	return g.host
}

// Check evaluates a spec against the host, short-circuiting on the first
// hard failure. Checks run in a fixed order: minimum host version, desktop
// membership, Wayland/X11 exclusivity, then soft-required packages. Missing
// soft packages only append warnings and never flip the verdict.
func (g *Gate) Check(ctx context.Context, spec *Spec) Status {
	if spec == nil {
		return Status{Compatible: true}
	}

	if spec.MinFedoraVersion > 0 {
		detected := g.host.FedoraVersion()
		if detected < spec.MinFedoraVersion {
			return Status{
				Compatible: false,
				Reason: fmt.Sprintf("requires Fedora %d or newer, host is Fedora %d",
					spec.MinFedoraVersion, detected),
			}
		}
	}

	if len(spec.Desktops) > 0 {
		desktop := g.host.Desktop()
		allowed := false
		for _, d := range spec.Desktops {
			if strings.EqualFold(d, desktop) {
				allowed = true
				break
			}
		}
		if !allowed {
			return Status{
				Compatible: false,
				Reason: fmt.Sprintf("requires desktop environment %s, host is running %s",
					strings.Join(spec.Desktops, "/"), desktop),
			}
		}
	}

	if spec.WaylandOnly && !g.host.IsWayland() {
		return Status{
			Compatible: false,
			Reason:     "requires a Wayland session, host session is not Wayland",
		}
	}

	if spec.X11Only && g.host.IsWayland() {
		return Status{
			Compatible: false,
			Reason:     "requires an X11 session, host is running Wayland",
		}
	}

	status := Status{Compatible: true}
	for _, pkg := range spec.RequiredPackages {
		if !g.host.PackageInstalled(ctx, pkg) {
			status.Warnings = append(status.Warnings,
				fmt.Sprintf("recommended package %s is not installed", pkg))
		}
	}

	return status
}

// CheckAppVersion gates on a plugin's minimum-compatible application
// version. An empty requirement is always compatible. The failure reason
// carries both the required and the running version strings.
func (g *Gate) CheckAppVersion(minVersion string) Status {
	if minVersion == "" {
		return Status{Compatible: true}
	}

	if CompareVersions(g.appVersion, minVersion) < 0 {
		return Status{
			Compatible: false,
			Reason: fmt.Sprintf("requires application version %s or newer, running version is %s",
				minVersion, g.appVersion),
		}
	}

	return Status{Compatible: true}
}

// CompareVersions compares two dotted version strings numerically.
// Returns -1, 0 or 1. Unparseable components compare as zero.
func CompareVersions(a, b string) int {
	av := parseVersion(a)
	bv := parseVersion(b)

	for i := 0; i < 3; i++ {
		if av[i] != bv[i] {
			if av[i] < bv[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func parseVersion(v string) [3]int {
	var out [3]int
	matches := versionRegex.FindStringSubmatch(strings.TrimSpace(v))
	if matches == nil {
		return out
	}
	for i := 0; i < 3; i++ {
		if matches[i+1] != "" {
			n, err := strconv.Atoi(matches[i+1])
			if err == nil {
				out[i] = n
			}
		}
	}
	return out
}
