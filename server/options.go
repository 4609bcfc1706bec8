// File: server/options.go
// Package server defines functional options for Listener construction.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"time"

	"github.com/hannahherbig/avendesora/api"
	"github.com/hannahherbig/avendesora/control"
)

// ListenerOption customizes listener initialization.
type ListenerOption func(*Listener)

// WithMetrics records counters into mr instead of a private registry.
func WithMetrics(mr *control.MetricsRegistry) ListenerOption {
	return func(l *Listener) {
		if mr != nil {
			l.metrics = mr
		}
	}
}

// WithHandler registers h for kind after the default handlers, so it
// observes the listener state they produced.
func WithHandler(kind api.EventKind, h api.EventHandler) ListenerOption {
	return func(l *Listener) {
		l.extra = append(l.extra, registration{kind: kind, h: h})
	}
}

// WithAcceptBackoff sets how long accepting pauses after the process runs
// out of descriptors. Non-positive values keep DefaultAcceptBackoff.
func WithAcceptBackoff(d time.Duration) ListenerOption {
	return func(l *Listener) {
		if d > 0 {
			l.acceptBackoff = d
		}
	}
}

type registration struct {
	kind api.EventKind
	h    api.EventHandler
}
