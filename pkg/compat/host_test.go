package compat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFedoraVersion tests release-file parsing
func TestFedoraVersion(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     int
	}{
		{
			name:     "plain version",
			contents: "NAME=Fedora\nVERSION_ID=41\nID=fedora\n",
			want:     41,
		},
		{
			name:     "quoted version",
			contents: `VERSION_ID="40"` + "\n",
			want:     40,
		},
		{
			name:     "point release",
			contents: "VERSION_ID=41.1\n",
			want:     41,
		},
		{
			name:     "missing version id",
			contents: "NAME=Fedora\n",
			want:     0,
		},
		{
			name:     "unparseable version",
			contents: "VERSION_ID=rawhide\n",
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := NewHost(nil, WithReleaseFile(writeReleaseFile(t, tt.contents)))
			assert.Equal(t, tt.want, host.FedoraVersion())
		})
	}
}

// TestFedoraVersion_MissingFile tests that an unreadable release file
// detects as version 0
func TestFedoraVersion_MissingFile(t *testing.T) {
	host := NewHost(nil, WithReleaseFile("/nonexistent/os-release"))
	assert.Equal(t, 0, host.FedoraVersion())
}

// TestDesktop tests desktop-environment normalization
func TestDesktop(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"GNOME", "gnome"},
		{"KDE", "kde"},
		{"X-Cinnamon", "cinnamon"},
		{"ubuntu:GNOME", "gnome"},
		{"XFCE", "xfce"},
		{"MATE", "mate"},
		{"LXQt", "lxqt"},
		{"Hyprland", "other"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run("env_"+tt.env, func(t *testing.T) {
			t.Setenv("XDG_CURRENT_DESKTOP", tt.env)
			host := NewHost(nil)
			assert.Equal(t, tt.want, host.Desktop())
		})
	}
}

// TestIsWayland tests session-type detection
func TestIsWayland(t *testing.T) {
	t.Setenv("XDG_SESSION_TYPE", "wayland")
	assert.True(t, NewHost(nil).IsWayland())

	t.Setenv("XDG_SESSION_TYPE", "x11")
	assert.False(t, NewHost(nil).IsWayland())
}

// TestPackageInstalled_Caching tests that each package is queried once
func TestPackageInstalled_Caching(t *testing.T) {
	queries := make(map[string]int)
	host := NewHost(nil, WithPackageQuerier(func(ctx context.Context, name string) (bool, error) {
		queries[name]++
		return name == "vim-enhanced", nil
	}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		assert.True(t, host.PackageInstalled(ctx, "vim-enhanced"))
		assert.False(t, host.PackageInstalled(ctx, "emacs"))
	}

	assert.Equal(t, 1, queries["vim-enhanced"])
	assert.Equal(t, 1, queries["emacs"])
}

// TestPackageInstalled_FailsClosed tests that query errors report not
// installed rather than blocking or assuming success
func TestPackageInstalled_FailsClosed(t *testing.T) {
	host := NewHost(nil, WithPackageQuerier(func(ctx context.Context, name string) (bool, error) {
		return true, errors.New("rpm database locked")
	}))

	require.False(t, host.PackageInstalled(context.Background(), "anything"))
}

// TestPackageQueryHook tests that the hook fires once per real query with
// its outcome, and never on cache hits
func TestPackageQueryHook(t *testing.T) {
	host := NewHost(nil, WithPackageQuerier(func(ctx context.Context, name string) (bool, error) {
		switch name {
		case "vim-enhanced":
			return true, nil
		case "broken":
			return false, errors.New("rpm database locked")
		default:
			return false, nil
		}
	}))

	outcomes := make(map[string]int)
	host.SetQueryHook(func(result string) {
		outcomes[result]++
	})

	ctx := context.Background()
	host.PackageInstalled(ctx, "vim-enhanced")
	host.PackageInstalled(ctx, "vim-enhanced") // cache hit, no hook
	host.PackageInstalled(ctx, "emacs")
	host.PackageInstalled(ctx, "broken")

	assert.Equal(t, 1, outcomes["installed"])
	assert.Equal(t, 1, outcomes["missing"])
	assert.Equal(t, 1, outcomes["error"])
}
