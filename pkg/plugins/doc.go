// Package plugins provides the core plugin model: manifests, discovery,
// the process-wide registry, and the legacy-plugin adapter.
//
// # Manifests
//
// Every plugin directory carries a plugin.yaml declaring identity, an
// entry point, and the capabilities the plugin requests. A manifest
// missing any required field is invalid and is never registered or
// executed; during discovery such plugins are skipped, never raised to
// the host.
//
// # Discovery
//
// Scanner enumerates subdirectories of the plugins root, validates each
// manifest structurally, and cross-references the state store: plugins
// absent from the state file default to enabled, explicitly disabled
// plugins are excluded.
//
// # Registry
//
// The registry is a process-wide catalogue queryable by id, by category,
// or in full. Native plugins register directly; legacy plugins are
// wrapped by Adapter, which synthesizes a display record defaulting
// category to "Community", badge to "community", and order to 500.
//
// # Related Packages
//
//   - pkg/pack: integrity-checked archive format
//   - pkg/compat: host-compatibility gating
//   - pkg/sandbox: capability enforcement
//   - pkg/installer: install/update/rollback lifecycle
package plugins
