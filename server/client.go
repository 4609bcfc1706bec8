// File: server/client.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"net"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/hannahherbig/avendesora/api"
	"github.com/hannahherbig/avendesora/reactor"
	"github.com/hannahherbig/avendesora/transport/tcp"
)

// LocalClient is one accepted connection that has not registered with the
// chat protocol yet.
type LocalClient struct {
	id          uuid.UUID
	fd          int
	hostname    string
	peer        netip.AddrPort
	server      *Listener
	connectedAt time.Time
	logger      api.Logger

	dead      atomic.Bool
	closed    atomic.Bool
	wantRead  atomic.Bool
	wantWrite atomic.Bool
}

func newLocalClient(l *Listener, res tcp.AcceptResult) *LocalClient {
	c := &LocalClient{
		id:          uuid.New(),
		fd:          res.FD,
		hostname:    res.Host,
		peer:        res.Peer,
		server:      l,
		connectedAt: time.Now(),
	}
	c.logger = l.logger.With("client", c.id.String(), "host", c.hostname)
	c.logger.Log(api.LevelDebug, "new client on "+l.HostPort())
	return c
}

// ID uniquely identifies the connection for its lifetime.
func (c *LocalClient) ID() uuid.UUID { return c.id }

// Hostname is the peer address, IPv4-mapped prefix removed.
func (c *LocalClient) Hostname() string { return c.hostname }

// IPAddress is the peer IP with IPv4-mapped addresses unmapped.
func (c *LocalClient) IPAddress() netip.Addr { return c.peer.Addr().Unmap() }

// PeerPort is the peer's source port.
func (c *LocalClient) PeerPort() int { return int(c.peer.Port()) }

// Server returns the listener that accepted the client.
func (c *LocalClient) Server() *Listener { return c.server }

// ConnectedAt is the accept time.
func (c *LocalClient) ConnectedAt() time.Time { return c.connectedAt }

// FD returns the connected descriptor.
func (c *LocalClient) FD() int { return c.fd }

// Logger returns the client-scoped logger.
func (c *LocalClient) Logger() api.Logger { return c.logger }

// Dead reports whether the client was marked for removal.
func (c *LocalClient) Dead() bool { return c.dead.Load() }

// Kill marks the client dead. The owning listener closes its socket and
// drops it from the registry at the top of its next iteration.
func (c *LocalClient) Kill() {
	if c.dead.CompareAndSwap(false, true) {
		c.server.wakeup()
	}
}

// SetInterest chooses which readiness events the listener waits for on this
// client's socket. A new client has no interest.
func (c *LocalClient) SetInterest(read, write bool) {
	c.wantRead.Store(read)
	c.wantWrite.Store(write)
}

func (c *LocalClient) interest() reactor.FDEventType {
	var ev reactor.FDEventType
	if c.wantRead.Load() {
		ev |= reactor.EventRead
	}
	if c.wantWrite.Load() {
		ev |= reactor.EventWrite
	}
	return ev
}

// Read performs one non-blocking read. api.ErrWouldBlock means no data yet.
func (c *LocalClient) Read(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, net.ErrClosed
	}
	return tcp.Recv(c.fd, p)
}

// Write performs one non-blocking write and may write less than len(p).
func (c *LocalClient) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, net.ErrClosed
	}
	return tcp.Send(c.fd, p)
}

func (c *LocalClient) close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.dead.Store(true)
	return tcp.CloseFD(c.fd)
}

func (c *LocalClient) String() string {
	return c.hostname + " (" + c.id.String() + ")"
}
