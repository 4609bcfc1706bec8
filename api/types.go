// File: api/types.go
// Author: momentics <momentics@gmail.com>
//
// Shared API-level type declarations, DTOs, and constants.

package api

import "time"

// ListenerState enumerates the lifecycle of a listening socket.
type ListenerState int

const (
	ListenerStarting ListenerState = iota
	ListenerListening
	ListenerDead
	ListenerClosed
)

func (s ListenerState) String() string {
	switch s {
	case ListenerStarting:
		return "starting"
	case ListenerListening:
		return "listening"
	case ListenerDead:
		return "dead"
	case ListenerClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ServiceInfo exposes descriptive build- and runtime info for external tools.
type ServiceInfo struct {
	Name      string
	Version   string
	StartedAt time.Time
}
