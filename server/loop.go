// File: server/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"

	"github.com/hannahherbig/avendesora/api"
	"github.com/hannahherbig/avendesora/reactor"
)

// Run executes the control loop on the calling goroutine until ctx is
// cancelled, Stop is called, or the listener fails unrecoverably. Sockets
// are released before Run returns.
func (l *Listener) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		if l.State() == api.ListenerClosed {
			return api.ErrListenerClosed
		}
		return api.ErrAlreadyRunning
	}
	defer close(l.done)

	unwatch := context.AfterFunc(ctx, l.Stop)
	defer unwatch()

	l.err = l.loop()
	l.teardown()
	l.logger.Log(api.LevelDebug, "listener loop exited")
	return l.err
}

func (l *Listener) loop() error {
	for {
		if l.stopRequested() {
			return nil
		}
		if err := l.prepare(); err != nil {
			return err
		}
		if l.stopRequested() {
			return nil
		}
		if err := l.wait(); err != nil {
			l.logger.Log(api.LevelFatal, "selector failed on "+l.HostPort(), "error", err)
			return err
		}
	}
}

// prepare does everything that happens before blocking: reap dead clients,
// turn a dead listening socket into a dead event, and drain the queue until
// it is empty. On return the listening socket is open, or a fatal error is
// reported.
func (l *Listener) prepare() error {
	l.reapClients()
	for {
		if l.dead.Load() {
			l.logger.Log(api.LevelWarning, "listener has died on "+l.HostPort()+", restarting")
			l.closeSocket()
			l.setState(api.ListenerDead)
			l.eventq.Post(api.EventDead)
		}

		for l.eventq.Pending() {
			l.eventq.Drain()
		}
		if l.fatal != nil {
			return l.fatal
		}
		if !l.dead.Load() && l.sock != nil {
			return nil
		}
	}
}

// wait blocks until the listening socket or a client socket with interest
// is ready, then posts the matching events. While accepting is paused the
// listening socket is left out and the resume timer wakes the selector.
func (l *Listener) wait() error {
	lfd := l.sock.FD()
	l.interest = l.interest[:0]
	if !l.acceptPaused.Load() {
		l.interest = append(l.interest, reactor.Interest{FD: lfd, Events: reactor.EventRead})
	}
	l.mu.RLock()
	for _, c := range l.clients {
		if c.Dead() {
			continue
		}
		if ev := c.interest(); ev != 0 {
			l.interest = append(l.interest, reactor.Interest{FD: c.fd, Events: ev})
		}
	}
	l.mu.RUnlock()

	ready, err := l.selector.Wait(l.interest)
	if err != nil {
		return api.NewError(api.ErrCodeInternal, "wait failed").
			WithContext("listener", l.HostPort()).Wrap(err)
	}

	for _, r := range ready {
		if r.FD == lfd {
			if r.Events&reactor.EventError != 0 {
				l.MarkDead()
				continue
			}
			l.eventq.Post(api.EventConnection)
			continue
		}
		c := l.clientByFD(r.FD)
		if c == nil {
			continue
		}
		wantRead := c.wantRead.Load()
		if r.Events&reactor.EventRead != 0 || (r.Events&reactor.EventError != 0 && wantRead) {
			l.eventq.Post(api.EventReadReady, c)
		}
		if r.Events&reactor.EventWrite != 0 || (r.Events&reactor.EventError != 0 && !wantRead) {
			l.eventq.Post(api.EventWriteReady, c)
		}
	}
	return nil
}
