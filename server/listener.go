// File: server/listener.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hannahherbig/avendesora/api"
	"github.com/hannahherbig/avendesora/control"
	"github.com/hannahherbig/avendesora/internal/concurrency"
	"github.com/hannahherbig/avendesora/reactor"
	"github.com/hannahherbig/avendesora/transport/tcp"
)

// Listener accepts TCP connections on one bind address and port and keeps
// the registry of clients accepted there.
type Listener struct {
	bindTo string
	port   int
	logger api.Logger

	// Owned by the loop goroutine.
	sock     *tcp.Socket
	eventq   *concurrency.EventQueue
	selector reactor.Selector
	interest []reactor.Interest
	fatal    error
	extra    []registration
	accepter acceptor // nil means the listening socket itself

	acceptBackoff time.Duration
	acceptPaused  atomic.Bool

	dead      atomic.Bool
	state     atomic.Int32
	boundPort atomic.Int32
	metrics   *control.MetricsRegistry

	mu      sync.RWMutex // guards clients and byFD for readers off the loop
	clients []*LocalClient
	byFD    map[int]*LocalClient

	running  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	err      error
}

// DefaultAcceptBackoff is how long the listening socket is left out of the
// wait after accept ran out of descriptors or memory.
const DefaultAcceptBackoff = 100 * time.Millisecond

// acceptor takes one pending connection without blocking.
type acceptor interface {
	Accept() (tcp.AcceptResult, error)
}

var (
	_ api.GracefulShutdown = (*Listener)(nil)
	_ api.Debug            = (*Listener)(nil)
)

// NewListener binds bindTo:port and returns a listener ready to Start.
// bindTo "*" listens on every interface. A bind failure is logged at fatal
// level and returned.
func NewListener(bindTo string, port int, logger api.Logger, opts ...ListenerOption) (*Listener, error) {
	if bindTo == "" {
		bindTo = tcp.WildcardHost
	}
	l := &Listener{
		bindTo:        bindTo,
		port:          port,
		eventq:        concurrency.NewEventQueue(),
		metrics:       control.NewMetricsRegistry(),
		byFD:          make(map[int]*LocalClient),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
		acceptBackoff: DefaultAcceptBackoff,
	}
	l.logger = logger.With("listener", l.HostPort())
	for _, o := range opts {
		o(l)
	}
	l.setState(api.ListenerStarting)
	l.logger.Log(api.LevelDebug, "new server at "+l.HostPort())

	sel, err := reactor.NewSelector()
	if err != nil {
		l.logger.Log(api.LevelFatal, "error creating selector for "+l.HostPort(), "error", err)
		return nil, api.NewError(api.ErrCodeInternal, "selector").
			WithContext("listener", l.HostPort()).Wrap(err)
	}
	l.selector = sel

	if err := l.startListening(); err != nil {
		sel.Close()
		return nil, err
	}
	l.setDefaultHandlers()
	return l, nil
}

// BindAddress returns the configured bind address ("*" for all).
func (l *Listener) BindAddress() string { return l.bindTo }

// Port returns the currently bound port, or the configured one while dead.
func (l *Listener) Port() int {
	if p := l.boundPort.Load(); p != 0 {
		return int(p)
	}
	return l.port
}

// HostPort returns "bind:port" as configured.
func (l *Listener) HostPort() string { return tcp.HostPort(l.bindTo, l.port) }

// State returns the lifecycle state.
func (l *Listener) State() api.ListenerState { return api.ListenerState(l.state.Load()) }

// AcceptPaused reports whether accepting is suspended after resource
// exhaustion.
func (l *Listener) AcceptPaused() bool { return l.acceptPaused.Load() }

// Dead reports whether the listening socket is marked lost.
func (l *Listener) Dead() bool { return l.dead.Load() }

// MarkDead flags the listening socket as lost. The loop closes it and
// reopens it before blocking again.
func (l *Listener) MarkDead() {
	if l.dead.CompareAndSwap(false, true) {
		l.wakeup()
	}
}

// Handle registers an extra handler for kind. It must be called before
// Start; the event queue belongs to the loop goroutine once it runs.
func (l *Listener) Handle(kind api.EventKind, h api.EventHandler) {
	l.eventq.Register(kind, h)
}

// Post queues an event for the next drain. Loop goroutine only.
func (l *Listener) Post(kind api.EventKind, args ...any) {
	l.eventq.Post(kind, args...)
}

// Clients returns a snapshot of the registry in accept order.
func (l *Listener) Clients() []*LocalClient {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*LocalClient(nil), l.clients...)
}

// ClientCount returns the registry size.
func (l *Listener) ClientCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.clients)
}

// Metrics returns the listener's counters.
func (l *Listener) Metrics() *control.MetricsRegistry { return l.metrics }

// DumpState implements api.Debug.
func (l *Listener) DumpState() map[string]any {
	out := l.metrics.GetSnapshot()
	out["bind_to"] = l.bindTo
	out["port"] = l.Port()
	out["state"] = l.State().String()
	out["accept_paused"] = l.AcceptPaused()
	out["clients"] = l.ClientCount()
	return out
}

// Start runs the control loop on its own goroutine.
func (l *Listener) Start(ctx context.Context) {
	go l.Run(ctx)
}

// Join blocks until the control loop has returned and yields its error.
func (l *Listener) Join() error {
	<-l.done
	return l.err
}

// Stop asks the loop to exit. It is safe to call from any goroutine, more
// than once, and before Start.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
		l.wakeup()
	})
}

// Shutdown implements api.GracefulShutdown: it stops the loop and waits for
// it to release its sockets. A listener that never ran is closed directly.
func (l *Listener) Shutdown() error {
	l.Stop()
	if l.running.CompareAndSwap(false, true) {
		l.teardown()
		close(l.done)
		return nil
	}
	return l.Join()
}

func (l *Listener) stopRequested() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

func (l *Listener) wakeup() {
	if l.selector == nil {
		return
	}
	if err := l.selector.Wakeup(); err != nil {
		l.logger.Log(api.LevelWarning, "selector wakeup failed", "error", err)
	}
}

// pauseAccept drops the listening socket from the wait for acceptBackoff.
// poll is level-triggered, so a backlog that cannot be accepted would
// otherwise wake the loop on every iteration.
func (l *Listener) pauseAccept() {
	if !l.acceptPaused.CompareAndSwap(false, true) {
		return
	}
	l.metrics.Add("accept_pauses", 1)
	time.AfterFunc(l.acceptBackoff, func() {
		l.acceptPaused.Store(false)
		l.wakeup()
	})
}

func (l *Listener) setState(s api.ListenerState) {
	l.state.Store(int32(s))
	l.metrics.Set("state", s.String())
}

// startListening binds the socket; it runs at construction and from the
// dead handler.
func (l *Listener) startListening() error {
	sock, err := tcp.Listen(context.Background(), l.bindTo, l.port)
	if err != nil {
		l.logger.Log(api.LevelFatal, "error acquiring socket for "+l.HostPort(), "error", err)
		return api.NewError(api.ErrCodeBind, "bind failed").
			WithContext("listener", l.HostPort()).Wrap(err)
	}
	l.sock = sock
	l.boundPort.Store(int32(sock.Port()))
	l.dead.Store(false)
	l.setState(api.ListenerListening)
	l.logger.Log(api.LevelInfo, "server listening at "+l.HostPort(), "port", sock.Port())
	return nil
}

func (l *Listener) closeSocket() {
	if l.sock == nil {
		return
	}
	if err := l.sock.Close(); err != nil {
		l.logger.Log(api.LevelDebug, "closing listening socket", "error", err)
	}
	l.sock = nil
	l.boundPort.Store(0)
}

func (l *Listener) addClient(c *LocalClient) {
	l.mu.Lock()
	l.clients = append(l.clients, c)
	l.byFD[c.fd] = c
	n := len(l.clients)
	l.mu.Unlock()
	l.metrics.Set("active_clients", int64(n))
}

func (l *Listener) clientByFD(fd int) *LocalClient {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.byFD[fd]
}

// reapClients closes and unregisters clients marked dead.
func (l *Listener) reapClients() {
	l.mu.RLock()
	found := false
	for _, c := range l.clients {
		if c.Dead() {
			found = true
			break
		}
	}
	l.mu.RUnlock()
	if !found {
		return
	}

	var gone []*LocalClient
	l.mu.Lock()
	kept := l.clients[:0]
	for _, c := range l.clients {
		if c.Dead() {
			gone = append(gone, c)
			delete(l.byFD, c.fd)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(l.clients); i++ {
		l.clients[i] = nil
	}
	l.clients = kept
	n := len(kept)
	l.mu.Unlock()

	for _, c := range gone {
		if err := c.close(); err != nil {
			c.logger.Log(api.LevelDebug, "closing client socket", "error", err)
		}
		c.logger.Log(api.LevelInfo, l.HostPort()+": client exited "+c.hostname)
	}
	l.metrics.Set("active_clients", int64(n))
}

// teardown releases every descriptor the listener owns.
func (l *Listener) teardown() {
	l.mu.Lock()
	clients := l.clients
	l.clients = nil
	l.byFD = make(map[int]*LocalClient)
	l.mu.Unlock()
	for _, c := range clients {
		c.close()
	}
	l.closeSocket()
	if l.selector != nil {
		l.selector.Close()
	}
	l.metrics.Set("active_clients", int64(0))
	l.setState(api.ListenerClosed)
}
