// File: api/events.go
// Package api defines core event types for the ircd core.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// EventKind tags an event posted to a listener's event queue.
type EventKind string

const (
	// EventConnection: the listening socket is readable.
	EventConnection EventKind = "connection"

	// EventDead: the listening socket was lost and must be reopened.
	EventDead EventKind = "dead"

	// EventReadReady: a client socket is readable. Args[0] is the client.
	EventReadReady EventKind = "read_ready"

	// EventWriteReady: a client socket is writable. Args[0] is the client.
	EventWriteReady EventKind = "write_ready"

	// EventNewClient: a connection was accepted and registered. Args[0] is
	// the client.
	EventNewClient EventKind = "new_client"
)

// Event is a posted (kind, args) pair. Args are opaque to the queue.
type Event struct {
	Kind EventKind
	Args []any
}

// Arg returns the i-th argument or nil when absent.
func (e Event) Arg(i int) any {
	if i < 0 || i >= len(e.Args) {
		return nil
	}
	return e.Args[i]
}

// EventHandler is invoked once per dispatched event of the kind it was
// registered for.
type EventHandler func(ev Event)
