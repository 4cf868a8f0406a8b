// Package platform composes plugin discovery, compatibility gating,
// sandboxing, and lifecycle management into one service.
//
// The Service scans the plugins root, admits plugins through the
// compatibility gate, frames each load with a capability guard, and
// registers admitted plugins in the shared registry. A Watcher reloads the
// platform when the plugins root changes on disk, and a Scheduler runs
// periodic update checks. Server exposes the admin HTTP API over
// gorilla/mux with Prometheus metrics and OpenTelemetry instrumentation.
package platform
