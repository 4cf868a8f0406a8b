// Package installer runs the transactional plugin lifecycle:
// install, update, rollback, and uninstall against a plugin source.
//
// Every operation returns a uniform Result with a ready-to-display
// message; lifecycle errors never cross the platform boundary as panics
// or raw errors. Operations on the same plugin id are serialized
// internally, and extraction is staged under a random directory and
// atomically renamed into the plugins root, so a crash or cancellation
// mid-install never leaves a partially-installed plugin visible to the
// scanner.
//
// Packages are verified (see pkg/pack) and gated (see pkg/compat) before
// any byte of them reaches the plugins root. A hard compatibility failure
// aborts the transaction with no state change.
package installer
