// Package api
// Author: momentics
//
// Runtime introspection contract for listeners and the orchestrator.

package api

// Debug exposes a point-in-time view of a component's state.
type Debug interface {
	// DumpState emits a snapshot of state for diagnostics.
	DumpState() map[string]any
}
