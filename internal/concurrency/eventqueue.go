// File: internal/concurrency/eventqueue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"github.com/eapache/queue"

	"github.com/hannahherbig/avendesora/api"
)

// EventQueue holds pending events and the handlers registered per kind.
type EventQueue struct {
	handlers map[api.EventKind][]api.EventHandler
	pending  *queue.Queue
}

// NewEventQueue creates an empty queue with no handlers.
func NewEventQueue() *EventQueue {
	return &EventQueue{
		handlers: make(map[api.EventKind][]api.EventHandler),
		pending:  queue.New(),
	}
}

// Register appends h to the handler list for kind. Handlers run in
// registration order; registering the same handler twice runs it twice.
func (q *EventQueue) Register(kind api.EventKind, h api.EventHandler) {
	if h == nil {
		return
	}
	q.handlers[kind] = append(q.handlers[kind], h)
}

// Handlers reports how many handlers are registered for kind.
func (q *EventQueue) Handlers(kind api.EventKind) int {
	return len(q.handlers[kind])
}

// Post appends (kind, args) to the pending sequence. It never dispatches.
func (q *EventQueue) Post(kind api.EventKind, args ...any) {
	ev := api.Event{Kind: kind}
	if len(args) > 0 {
		ev.Args = append([]any(nil), args...)
	}
	q.pending.Add(ev)
}

// Pending reports whether any event is waiting for dispatch.
func (q *EventQueue) Pending() bool {
	return q.pending.Length() > 0
}

// Len returns the number of events waiting for dispatch.
func (q *EventQueue) Len() int {
	return q.pending.Length()
}

// Drain dispatches events oldest first until none remain, including events
// posted by handlers while draining. It returns the number of events
// dispatched.
//
// There is no iteration bound: a handler that unconditionally reposts its
// own kind keeps Drain from ever returning.
func (q *EventQueue) Drain() int {
	n := 0
	for q.pending.Length() > 0 {
		ev := q.pending.Remove().(api.Event)
		n++
		// Snapshot so a handler registering more handlers for this kind
		// only affects later events.
		hs := q.handlers[ev.Kind]
		for _, h := range hs {
			h(ev)
		}
	}
	return n
}
