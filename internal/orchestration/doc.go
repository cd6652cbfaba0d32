// Package orchestration is the caller-facing boundary of instancectl.
//
// A [Provider] bundles a backend's capabilities with observability,
// timeouts and metrics, and exposes the four instance operations:
// Allocate, Delete, Find and GetInstanceState. Every call gets a fresh
// operation id that is attached to all of its log output and, when a
// [ReportStore] is configured, to the YAML report uploaded for it.
package orchestration
