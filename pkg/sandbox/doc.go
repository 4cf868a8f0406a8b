// Package sandbox enforces a plugin's granted capability set against its
// runtime behavior.
//
// # Capabilities
//
// Capabilities form a fixed closed set: network, filesystem, subprocess,
// sudo, clipboard, notifications. Unknown strings in a manifest are inert:
// they are dropped during policy construction, never silently granted.
//
// # Enforcement
//
// The primary mechanism is deny-by-default capability objects: NewEnv
// constructs an Env exposing only the facades a policy grants, so a plugin
// has no ambient path to denied operations at all. Requesting an ungranted
// facade fails synchronously with a PermissionDeniedError naming the
// plugin, the facade, and the missing capability.
//
// Guard provides the complementary module-load check for hosts that run
// interpreted plugin code: an explicit stack of active policies consulted
// when a plugin attempts to load a module from the network or
// process-spawning families. The load path must hold one mutex around
// load-and-wrap; the guard does not serialize loads itself.
//
// Both mechanisms are intentionally coarse. True containment is delegated
// to an IsolationProvider via EnforceIsolation.
package sandbox
