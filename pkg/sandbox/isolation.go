package sandbox

import (
	"github.com/sirupsen/logrus"
)

// IsolationProvider applies OS-level containment for a policy. True
// process/namespace isolation is the provider's job; the in-process guard
// is intentionally coarse.
type IsolationProvider interface {
	ApplyPolicy(policy Policy) (bool, error)
}

// SystemdIsolationManager is the default isolation provider. It maps a
// policy's granted capabilities onto systemd sandboxing properties that a
// host launching plugin helpers through systemd-run can apply.
type SystemdIsolationManager struct {
	log *logrus.Logger
}

// NewSystemdIsolationManager creates the default isolation manager.
func NewSystemdIsolationManager(log *logrus.Logger) *SystemdIsolationManager {
	if log == nil {
		log = logrus.New()
	}
	return &SystemdIsolationManager{log: log}
}

// ApplyPolicy accepts a policy and records the unit properties derived
// from it. It rejects a policy with an empty plugin id.
func (m *SystemdIsolationManager) ApplyPolicy(policy Policy) (bool, error) {
	if policy.PluginID == "" {
		return false, nil
	}

	props := m.UnitProperties(policy)
	m.log.WithField("plugin", policy.PluginID).
		Debugf("Isolation properties: %v", props)
	return true, nil
}

// UnitProperties returns the systemd unit properties for a policy.
// Capabilities not granted are locked out at the unit level.
func (m *SystemdIsolationManager) UnitProperties(policy Policy) []string {
	props := []string{
		"ProtectSystem=strict",
		"ProtectHome=read-only",
		"PrivateTmp=yes",
	}

	if !policy.Has(CapabilityNetwork) {
		props = append(props, "PrivateNetwork=yes")
	}
	if !policy.Has(CapabilitySudo) {
		props = append(props, "NoNewPrivileges=yes")
	}
	if policy.Has(CapabilityFilesystem) {
		props = append(props, "ReadWritePaths=%h/.local/share/loofi-tweaks/plugins/"+policy.PluginID)
	}

	return props
}

// EnforceIsolation hands a policy to an isolation provider and reduces the
// outcome to a boolean. A nil provider falls back to the default
// systemd-based manager.
func EnforceIsolation(policy Policy, provider IsolationProvider, log *logrus.Logger) bool {
	if provider == nil {
		provider = NewSystemdIsolationManager(log)
	}

	accepted, err := provider.ApplyPolicy(policy)
	if err != nil {
		if log != nil {
			log.WithError(err).Warnf("Isolation provider rejected policy for %s", policy.PluginID)
		}
		return false
	}
	return accepted
}
