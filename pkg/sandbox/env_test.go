package sandbox

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewPolicy_UnknownCapabilitiesInert tests that unknown capability
// names are dropped, never granted
func TestNewPolicy_UnknownCapabilitiesInert(t *testing.T) {
	policy := NewPolicy("p", []string{"network", "telepathy", "root", "clipboard"})

	assert.True(t, policy.Has(CapabilityNetwork))
	assert.True(t, policy.Has(CapabilityClipboard))
	assert.False(t, policy.Has(Capability("telepathy")))
	assert.False(t, policy.Has(CapabilitySudo))
	assert.Equal(t, []Capability{CapabilityClipboard, CapabilityNetwork}, policy.Capabilities())
}

// TestEnv_DenyByDefault tests that every facade is absent unless granted
func TestEnv_DenyByDefault(t *testing.T) {
	env := NewEnv(NewPolicy("bare", nil), t.TempDir())

	facades := []struct {
		name string
		get  func() (any, error)
		cap  Capability
	}{
		{"network", func() (any, error) { return env.Network() }, CapabilityNetwork},
		{"filesystem", func() (any, error) { return env.Filesystem() }, CapabilityFilesystem},
		{"subprocess", func() (any, error) { return env.Subprocess() }, CapabilitySubprocess},
		{"sudo", func() (any, error) { return env.Sudo() }, CapabilitySudo},
		{"clipboard", func() (any, error) { return env.Clipboard() }, CapabilityClipboard},
		{"notifications", func() (any, error) { return env.Notifications() }, CapabilityNotifications},
	}

	for _, f := range facades {
		t.Run(f.name, func(t *testing.T) {
			_, err := f.get()
			require.Error(t, err)

			var denied *PermissionDeniedError
			require.True(t, errors.As(err, &denied))
			assert.Equal(t, "bare", denied.PluginID)
			assert.Equal(t, f.name, denied.Module)
			assert.Equal(t, f.cap, denied.Capability)
		})
	}
}

// TestEnv_GrantedFacades tests that granted facades are present
func TestEnv_GrantedFacades(t *testing.T) {
	env := NewEnv(NewPolicy("granted", []string{"network", "subprocess"}), t.TempDir())

	network, err := env.Network()
	assert.NoError(t, err)
	assert.NotNil(t, network)

	subprocess, err := env.Subprocess()
	assert.NoError(t, err)
	assert.NotNil(t, subprocess)

	_, err = env.Filesystem()
	assert.Error(t, err)
}

// TestFilesystemAPI_ScopedToRoot tests that the filesystem facade rejects
// escaping paths
func TestFilesystemAPI_ScopedToRoot(t *testing.T) {
	root := t.TempDir()
	env := NewEnv(NewPolicy("fs", []string{"filesystem"}), root)

	fs, err := env.Filesystem()
	require.NoError(t, err)

	require.NoError(t, fs.WriteFile("data/notes.txt", []byte("hello")))
	data, err := fs.ReadFile("data/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = fs.ReadFile("../outside.txt")
	assert.Error(t, err)

	err = fs.WriteFile(filepath.Join("..", "..", "etc", "passwd"), []byte("x"))
	assert.Error(t, err)

	_, err = fs.ReadFile("/etc/passwd")
	assert.Error(t, err)
}

// TestEnforceIsolation tests provider handoff and the default manager
func TestEnforceIsolation(t *testing.T) {
	policy := NewPolicy("iso", []string{"network"})

	accepted := EnforceIsolation(policy, nil, nil)
	assert.True(t, accepted)

	accepted = EnforceIsolation(policy, rejectingProvider{}, nil)
	assert.False(t, accepted)

	accepted = EnforceIsolation(NewPolicy("", nil), nil, nil)
	assert.False(t, accepted, "default manager rejects an empty plugin id")
}

type rejectingProvider struct{}

func (rejectingProvider) ApplyPolicy(policy Policy) (bool, error) {
	return false, errors.New("isolation unavailable")
}

// TestSystemdUnitProperties tests capability-to-property mapping
func TestSystemdUnitProperties(t *testing.T) {
	manager := NewSystemdIsolationManager(nil)

	props := manager.UnitProperties(NewPolicy("locked", nil))
	assert.Contains(t, props, "PrivateNetwork=yes")
	assert.Contains(t, props, "NoNewPrivileges=yes")

	props = manager.UnitProperties(NewPolicy("networked", []string{"network", "sudo"}))
	assert.NotContains(t, props, "PrivateNetwork=yes")
	assert.NotContains(t, props, "NoNewPrivileges=yes")
	assert.Contains(t, props, "ProtectSystem=strict")
}
