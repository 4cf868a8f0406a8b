package sandbox

import (
	"fmt"
	"sort"
)

// Capability is one named privilege a plugin may request, drawn from a
// fixed closed set. Strings outside the set are never treated as
// capabilities.
type Capability string

const (
	CapabilityNetwork       Capability = "network"
	CapabilityFilesystem    Capability = "filesystem"
	CapabilitySubprocess    Capability = "subprocess"
	CapabilitySudo          Capability = "sudo"
	CapabilityClipboard     Capability = "clipboard"
	CapabilityNotifications Capability = "notifications"
)

// AllCapabilities lists the closed capability set.
var AllCapabilities = []Capability{
	CapabilityNetwork,
	CapabilityFilesystem,
	CapabilitySubprocess,
	CapabilitySudo,
	CapabilityClipboard,
	CapabilityNotifications,
}

// IsValidCapability reports whether s names a known capability.
func IsValidCapability(s string) bool {
	for _, c := range AllCapabilities {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Policy binds a plugin id to its granted capability set. It is the unit
// handed to both the in-process guard and any external isolation provider.
type Policy struct {
	PluginID string
	granted  map[Capability]bool
}

// NewPolicy creates a Policy granting the listed capabilities. Unknown
// capability names are inert: they are dropped, never silently granted.
func NewPolicy(pluginID string, requested []string) Policy {
	granted := make(map[Capability]bool)
	for _, name := range requested {
		if IsValidCapability(name) {
			granted[Capability(name)] = true
		}
	}
	return Policy{PluginID: pluginID, granted: granted}
}

// Has reports whether the capability was granted.
func (p Policy) Has(c Capability) bool {
	return p.granted[c]
}

// Capabilities returns the granted set in stable order.
func (p Policy) Capabilities() []Capability {
	out := make([]Capability, 0, len(p.granted))
	for c := range p.granted {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PermissionDeniedError is raised synchronously at the exact point a plugin
// attempts an operation outside its granted capability set.
type PermissionDeniedError struct {
	PluginID   string
	Module     string
	Capability Capability
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("plugin %s denied access to %s: missing capability %q",
		e.PluginID, e.Module, e.Capability)
}
