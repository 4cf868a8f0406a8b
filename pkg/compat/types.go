package compat

import "fmt"

// Spec declares the host requirements of a plugin.
// A zero-value Spec places no requirements and is always compatible.
type Spec struct {
	MinFedoraVersion int      `yaml:"min_fedora_version,omitempty" json:"min_fedora_version,omitempty"`
	Desktops         []string `yaml:"desktops,omitempty" json:"desktops,omitempty"`
	WaylandOnly      bool     `yaml:"wayland_only,omitempty" json:"wayland_only,omitempty"`
	X11Only          bool     `yaml:"x11_only,omitempty" json:"x11_only,omitempty"`
	RequiredPackages []string `yaml:"required_packages,omitempty" json:"required_packages,omitempty"`
}

// Status is the gate's verdict for one spec. Reason is populated only on a
// hard failure; Warnings accumulate soft failures and never block.
type Status struct {
	Compatible bool     `json:"compatible"`
	Reason     string   `json:"reason,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Error represents a hard compatibility failure that blocks registration
// or installation.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("incompatible with host: %s", e.Reason)
}

// Err converts a hard failure into a typed error, nil when compatible.
func (s Status) Err() error {
	if s.Compatible {
		return nil
	}
	return &Error{Reason: s.Reason}
}
