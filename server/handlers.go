// File: server/handlers.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/hannahherbig/avendesora/api"
	"github.com/hannahherbig/avendesora/transport/tcp"
)

// setDefaultHandlers wires the handlers every listener needs, then the ones
// supplied through WithHandler.
func (l *Listener) setDefaultHandlers() {
	l.eventq.Register(api.EventDead, l.onDead)
	l.eventq.Register(api.EventConnection, l.onConnection)
	for _, r := range l.extra {
		l.eventq.Register(r.kind, r.h)
	}
	l.extra = nil
}

// onDead reopens the listening socket. A failed reopen is fatal for this
// listener: the loop returns the error instead of retrying.
func (l *Listener) onDead(api.Event) {
	if l.sock != nil {
		return
	}
	if err := l.startListening(); err != nil {
		l.fatal = api.NewError(api.ErrCodeRebind, "listener could not be restarted").
			WithContext("listener", l.HostPort()).Wrap(err)
		return
	}
	l.metrics.Add("rebinds", 1)
}

// onConnection accepts at most one pending connection. Nothing pending is
// the normal outcome of a spurious wakeup and is ignored.
func (l *Listener) onConnection(api.Event) {
	if l.sock == nil {
		return
	}
	var src acceptor = l.sock
	if l.accepter != nil {
		src = l.accepter
	}
	res, err := src.Accept()
	if err != nil {
		l.acceptFailed(err)
		return
	}
	if res.WouldBlock {
		return
	}

	l.logger.Log(api.LevelInfo, l.HostPort()+": new connection from "+res.Host)

	c := newLocalClient(l, res)
	l.addClient(c)
	l.metrics.Add("accepted", 1)
	l.eventq.Post(api.EventNewClient, c)
}

func (l *Listener) acceptFailed(err error) {
	l.metrics.Add("accept_errors", 1)
	switch {
	case tcp.IsTransientAcceptError(err):
		l.logger.Log(api.LevelDebug, "accept aborted", "error", err)
	case tcp.IsExhaustedAcceptError(err):
		l.logger.Log(api.LevelWarning, "accept failed: out of resources, pausing", "error", err, "backoff", l.acceptBackoff)
		l.pauseAccept()
	default:
		l.logger.Log(api.LevelError, "accept failed on "+l.HostPort(), "error", err)
		l.MarkDead()
	}
}
