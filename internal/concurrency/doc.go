// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-consumer dispatch primitives for listener control loops.
//
// EventQueue is a deferred FIFO dispatcher with per-kind handler
// registration. A listener posts events while it is awake and drains them
// synchronously before blocking on socket readiness again. The queue is not
// safe for concurrent use: each listener owns exactly one.
package concurrency
