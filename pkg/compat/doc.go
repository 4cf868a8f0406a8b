// Package compat gates plugins on host facts: the Fedora release version,
// the desktop environment, the windowing session type, and the presence of
// soft-required packages.
//
// Host facts are computed lazily and cached for the process lifetime.
// Package-database lookups shell out to rpm under a bounded timeout and
// fail closed: an unanswerable query is treated as "not installed", never
// assumed successful.
//
// Check order is fixed and short-circuits on the first hard failure:
//
//  1. Minimum host version
//  2. Desktop-environment allow-list
//  3. Wayland-only / X11-only exclusivity
//  4. Soft-required packages (warnings only, never blocking)
package compat
