// File: fake/selector.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package fake provides scripted stand-ins for OS-facing components.
package fake

import (
	"sync"

	"github.com/hannahherbig/avendesora/reactor"
)

// Selector returns queued readiness results from Wait instead of polling.
// With nothing queued, Wait reports an empty wakeup.
type Selector struct {
	mu      sync.Mutex
	script  [][]reactor.Ready
	calls   [][]reactor.Interest
	wakeups int
	closed  bool
}

var _ reactor.Selector = (*Selector)(nil)

// Push queues the result of one future Wait.
func (s *Selector) Push(ready ...reactor.Ready) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, ready)
}

// Wait records interest and pops the next scripted result.
func (s *Selector) Wait(interest []reactor.Interest) ([]reactor.Ready, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, append([]reactor.Interest(nil), interest...))
	if len(s.script) == 0 {
		return nil, nil
	}
	next := s.script[0]
	s.script = s.script[1:]
	return next, nil
}

// Wakeup counts calls.
func (s *Selector) Wakeup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wakeups++
	return nil
}

// Close marks the selector closed.
func (s *Selector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Calls returns the interest sets passed to Wait, oldest first.
func (s *Selector) Calls() [][]reactor.Interest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]reactor.Interest(nil), s.calls...)
}

// Wakeups returns how many times Wakeup was called.
func (s *Selector) Wakeups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wakeups
}

// Closed reports whether Close was called.
func (s *Selector) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
