package compat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReleaseFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func testHost(t *testing.T, version int, installed map[string]bool) *Host {
	t.Helper()
	release := writeReleaseFile(t, fmt.Sprintf("NAME=Fedora\nVERSION_ID=%d\n", version))
	log := logrus.New()
	log.SetOutput(os.Stderr)

	return NewHost(log,
		WithReleaseFile(release),
		WithPackageQuerier(func(ctx context.Context, name string) (bool, error) {
			return installed[name], nil
		}),
	)
}

// TestCheck_EmptySpec tests that an empty or nil spec is always compatible
func TestCheck_EmptySpec(t *testing.T) {
	gate := NewGate(testHost(t, 41, nil), "25.0.0", nil)

	status := gate.Check(context.Background(), nil)
	assert.True(t, status.Compatible)
	assert.Empty(t, status.Reason)
	assert.Empty(t, status.Warnings)

	status = gate.Check(context.Background(), &Spec{})
	assert.True(t, status.Compatible)
}

// TestCheck_MinVersionMonotonic tests that compatibility is monotonic in
// the detected host version
func TestCheck_MinVersionMonotonic(t *testing.T) {
	const detected = 40
	gate := NewGate(testHost(t, detected, nil), "25.0.0", nil)

	for required := 0; required <= 45; required++ {
		status := gate.Check(context.Background(), &Spec{MinFedoraVersion: required})
		want := detected >= required || required == 0
		assert.Equal(t, want, status.Compatible, "required=%d", required)
	}
}

// TestCheck_MinVersionReason tests that a version failure names both versions
func TestCheck_MinVersionReason(t *testing.T) {
	gate := NewGate(testHost(t, 38, nil), "25.0.0", nil)

	status := gate.Check(context.Background(), &Spec{MinFedoraVersion: 42})
	assert.False(t, status.Compatible)
	assert.Contains(t, status.Reason, "42")
	assert.Contains(t, status.Reason, "38")
}

// TestCheck_DesktopAllowList tests desktop-environment gating
func TestCheck_DesktopAllowList(t *testing.T) {
	t.Setenv("XDG_CURRENT_DESKTOP", "GNOME")
	gate := NewGate(testHost(t, 41, nil), "25.0.0", nil)

	status := gate.Check(context.Background(), &Spec{Desktops: []string{"gnome", "kde"}})
	assert.True(t, status.Compatible)

	status = gate.Check(context.Background(), &Spec{Desktops: []string{"xfce"}})
	assert.False(t, status.Compatible)
	assert.Contains(t, status.Reason, "xfce")
	assert.Contains(t, status.Reason, "gnome")
}

// TestCheck_SessionExclusivity tests Wayland-only and X11-only gating
func TestCheck_SessionExclusivity(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "x11")
	gate := NewGate(testHost(t, 41, nil), "25.0.0", nil)

	status := gate.Check(context.Background(), &Spec{WaylandOnly: true})
	assert.False(t, status.Compatible)
	assert.Contains(t, status.Reason, "Wayland")

	status = gate.Check(context.Background(), &Spec{X11Only: true})
	assert.True(t, status.Compatible)
}

// TestCheck_WaylandOnlyReason tests that the failure reason stays truthful
// when the session type is tty or unset rather than X11
func TestCheck_WaylandOnlyReason(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "tty")
	gate := NewGate(testHost(t, 41, nil), "25.0.0", nil)

	status := gate.Check(context.Background(), &Spec{WaylandOnly: true})
	assert.False(t, status.Compatible)
	assert.Contains(t, status.Reason, "not Wayland")
	assert.NotContains(t, status.Reason, "X11")
}

// TestCheck_SoftPackagesNeverBlock tests that missing soft-required packages
// produce one warning each and never flip the verdict
func TestCheck_SoftPackagesNeverBlock(t *testing.T) {
	gate := NewGate(testHost(t, 41, map[string]bool{"gnome-tweaks": true}), "25.0.0", nil)

	spec := &Spec{RequiredPackages: []string{"gnome-tweaks", "dconf-editor", "flatseal"}}
	status := gate.Check(context.Background(), spec)

	assert.True(t, status.Compatible)
	assert.Empty(t, status.Reason)
	require.Len(t, status.Warnings, 2)
	assert.Contains(t, status.Warnings[0], "dconf-editor")
	assert.Contains(t, status.Warnings[1], "flatseal")
}

// TestCheck_HardFailureShortCircuits tests that a version failure suppresses
// later checks
func TestCheck_HardFailureShortCircuits(t *testing.T) {
	queried := 0
	release := writeReleaseFile(t, "VERSION_ID=30\n")
	host := NewHost(nil,
		WithReleaseFile(release),
		WithPackageQuerier(func(ctx context.Context, name string) (bool, error) {
			queried++
			return false, nil
		}),
	)
	gate := NewGate(host, "25.0.0", nil)

	status := gate.Check(context.Background(), &Spec{
		MinFedoraVersion: 99,
		RequiredPackages: []string{"something"},
	})
	assert.False(t, status.Compatible)
	assert.Zero(t, queried, "package query should not run after a hard failure")
	assert.Empty(t, status.Warnings)
}

// TestCheckAppVersion tests minimum application-version gating
func TestCheckAppVersion(t *testing.T) {
	gate := NewGate(testHost(t, 41, nil), "25.0.0", nil)

	status := gate.CheckAppVersion("")
	assert.True(t, status.Compatible)

	status = gate.CheckAppVersion("24.1.0")
	assert.True(t, status.Compatible)

	status = gate.CheckAppVersion("25.0.0")
	assert.True(t, status.Compatible)

	status = gate.CheckAppVersion("30.0.0")
	assert.False(t, status.Compatible)
	assert.Contains(t, status.Reason, "30.0.0")
	assert.Contains(t, status.Reason, "25.0.0")
}

// TestCompareVersions tests dotted version comparison
func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"2.0.0", "1.9.9", 1},
		{"v1.2.3", "1.2.3", 0},
		{"1.2", "1.2.0", 0},
		{"25.0.0", "30.0.0", -1},
		{"garbage", "0.0.0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
		})
	}
}
