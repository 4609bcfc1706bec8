// File: fake/acceptor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import (
	"sync"

	"github.com/hannahherbig/avendesora/transport/tcp"
)

// AcceptStep is one scripted Accept outcome.
type AcceptStep struct {
	Result tcp.AcceptResult
	Err    error
}

// Acceptor replays scripted accept outcomes. Once the script is used up it
// reports would-block.
type Acceptor struct {
	mu     sync.Mutex
	script []AcceptStep
	calls  int
}

// Push queues outcomes for future Accept calls.
func (a *Acceptor) Push(steps ...AcceptStep) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.script = append(a.script, steps...)
}

// Fail queues one failing Accept.
func (a *Acceptor) Fail(err error) {
	a.Push(AcceptStep{Result: tcp.AcceptResult{FD: -1}, Err: err})
}

// Accept pops the next outcome.
func (a *Acceptor) Accept() (tcp.AcceptResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	if len(a.script) == 0 {
		return tcp.AcceptResult{WouldBlock: true, FD: -1}, nil
	}
	next := a.script[0]
	a.script = a.script[1:]
	return next.Result, next.Err
}

// Calls returns how many times Accept ran.
func (a *Acceptor) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}
