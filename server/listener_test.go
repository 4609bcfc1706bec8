//go:build linux
// +build linux

package server_test

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/hannahherbig/avendesora/api"
	"github.com/hannahherbig/avendesora/internal/logging"
	"github.com/hannahherbig/avendesora/server"
)

func startListener(t *testing.T, bindTo string, opts ...server.ListenerOption) (*server.Listener, context.CancelFunc) {
	t.Helper()
	l, err := server.NewListener(bindTo, 0, logging.Discard(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.Start(ctx)
	t.Cleanup(func() {
		cancel()
		if err := l.Join(); err != nil {
			t.Errorf("Join: %v", err)
		}
	})
	return l, cancel
}

func dial(t *testing.T, network, host string, port int) net.Conn {
	t.Helper()
	c, err := net.DialTimeout(network, net.JoinHostPort(host, strconv.Itoa(port)), 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestListener_AcceptsOnWildcard(t *testing.T) {
	l, _ := startListener(t, "*")
	if l.BindAddress() != "*" || l.State() != api.ListenerListening {
		t.Fatalf("bind=%q state=%v", l.BindAddress(), l.State())
	}

	conn := dial(t, "tcp4", "127.0.0.1", l.Port())
	eventually(t, "one client", func() bool { return l.ClientCount() == 1 })

	c := l.Clients()[0]
	if c.Hostname() != "127.0.0.1" {
		t.Errorf("hostname = %q, want 127.0.0.1", c.Hostname())
	}
	local := conn.LocalAddr().(*net.TCPAddr)
	if c.PeerPort() != local.Port {
		t.Errorf("peer port = %d, want %d", c.PeerPort(), local.Port)
	}
	if c.Server() != l || c.Dead() {
		t.Errorf("server=%p dead=%v", c.Server(), c.Dead())
	}
	if got := l.Metrics().Counter("accepted"); got != 1 {
		t.Errorf("accepted = %d, want 1", got)
	}
}

func TestListener_WildcardAcceptsIPv6(t *testing.T) {
	l, _ := startListener(t, "*")
	c, err := net.DialTimeout("tcp6", net.JoinHostPort("::1", strconv.Itoa(l.Port())), time.Second)
	if err != nil {
		t.Skipf("IPv6 loopback unavailable: %v", err)
	}
	defer c.Close()
	eventually(t, "ipv6 client", func() bool { return l.ClientCount() == 1 })
	if h := l.Clients()[0].Hostname(); h != "::1" {
		t.Errorf("hostname = %q, want ::1", h)
	}
}

func TestListener_ListenersDoNotInterfere(t *testing.T) {
	a, _ := startListener(t, "127.0.0.1")
	b, _ := startListener(t, "127.0.0.1")
	if a.Port() == b.Port() {
		t.Fatal("listeners share a port")
	}

	dial(t, "tcp", "127.0.0.1", a.Port())
	dial(t, "tcp", "127.0.0.1", a.Port())
	eventually(t, "two clients on A", func() bool { return a.ClientCount() == 2 })

	time.Sleep(20 * time.Millisecond)
	if n := b.ClientCount(); n != 0 {
		t.Errorf("listener B has %d clients, want 0", n)
	}
	for _, c := range a.Clients() {
		if c.Server() != a {
			t.Error("client on A points at another listener")
		}
	}
}

func TestListener_ReadReadyReachesProtocolHandler(t *testing.T) {
	var mu sync.Mutex
	var got []byte
	opts := []server.ListenerOption{
		server.WithHandler(api.EventNewClient, func(ev api.Event) {
			ev.Arg(0).(*server.LocalClient).SetInterest(true, false)
		}),
		server.WithHandler(api.EventReadReady, func(ev api.Event) {
			c := ev.Arg(0).(*server.LocalClient)
			buf := make([]byte, 512)
			n, err := c.Read(buf)
			switch {
			case errors.Is(err, api.ErrWouldBlock):
				return
			case err != nil:
				c.Kill()
				return
			}
			mu.Lock()
			got = append(got, buf[:n]...)
			mu.Unlock()
			if _, err := c.Write(buf[:n]); err != nil {
				c.Kill()
			}
		}),
	}
	l, _ := startListener(t, "127.0.0.1", opts...)

	conn := dial(t, "tcp", "127.0.0.1", l.Port())
	if _, err := conn.Write([]byte("NICK rakaur\r\n")); err != nil {
		t.Fatal(err)
	}
	eventually(t, "data at handler", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return string(got) == "NICK rakaur\r\n"
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	echo := make([]byte, 64)
	n, err := io.ReadAtLeast(conn, echo, len("NICK rakaur\r\n"))
	if err != nil {
		t.Fatal(err)
	}
	if string(echo[:n]) != "NICK rakaur\r\n" {
		t.Errorf("echo = %q", echo[:n])
	}

	// Closing our side makes Read return EOF; the handler kills the client
	// and the loop reaps it.
	conn.Close()
	eventually(t, "client reaped", func() bool { return l.ClientCount() == 0 })
}

func TestListener_KillClosesPeer(t *testing.T) {
	l, _ := startListener(t, "127.0.0.1")
	conn := dial(t, "tcp", "127.0.0.1", l.Port())
	eventually(t, "one client", func() bool { return l.ClientCount() == 1 })

	l.Clients()[0].Kill()
	eventually(t, "client reaped", func() bool { return l.ClientCount() == 0 })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Errorf("peer read = %v, want EOF", err)
	}
}

func TestListener_MarkDeadRebindsWhileRunning(t *testing.T) {
	l, _ := startListener(t, "127.0.0.1")
	l.MarkDead()
	eventually(t, "rebind", func() bool {
		return l.Metrics().Counter("rebinds") == 1 && l.State() == api.ListenerListening
	})

	dial(t, "tcp", "127.0.0.1", l.Port())
	eventually(t, "client after rebind", func() bool { return l.ClientCount() == 1 })
}

func TestListener_StopReleasesSocket(t *testing.T) {
	l, err := server.NewListener("127.0.0.1", 0, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	port := l.Port()
	l.Start(context.Background())
	dial(t, "tcp", "127.0.0.1", port)
	eventually(t, "one client", func() bool { return l.ClientCount() == 1 })

	if err := l.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if l.State() != api.ListenerClosed || l.ClientCount() != 0 {
		t.Errorf("state=%v clients=%d after Shutdown", l.State(), l.ClientCount())
	}
	if _, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), time.Second); err == nil {
		t.Error("port still accepting after Shutdown")
	}
	if err := l.Run(context.Background()); !errors.Is(err, api.ErrListenerClosed) {
		t.Errorf("Run after Shutdown = %v, want ErrListenerClosed", err)
	}
}

func TestListener_ShutdownWithoutStart(t *testing.T) {
	l, err := server.NewListener("127.0.0.1", 0, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := l.Join(); err != nil {
		t.Errorf("Join after Shutdown = %v", err)
	}
}

func TestNewListener_BindFailure(t *testing.T) {
	a, err := server.NewListener("127.0.0.1", 0, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Shutdown()

	_, err = server.NewListener("127.0.0.1", a.Port(), logging.Discard())
	if err == nil {
		t.Fatal("expected bind failure")
	}
	if api.CodeOf(err) != api.ErrCodeBind {
		t.Errorf("error code = %v, want bind", api.CodeOf(err))
	}
}
