//go:build linux
// +build linux

package tcp_test

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/hannahherbig/avendesora/api"
	"github.com/hannahherbig/avendesora/transport/tcp"
)

func acceptWithin(t *testing.T, s *tcp.Socket, d time.Duration) tcp.AcceptResult {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		res, err := s.Accept()
		if err != nil {
			t.Fatalf("Accept: %v", err)
		}
		if !res.WouldBlock {
			return res
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no connection accepted in time")
	return tcp.AcceptResult{}
}

func TestListen_AcceptWouldBlock(t *testing.T) {
	s, err := tcp.Listen(context.Background(), "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if s.Port() == 0 {
		t.Fatal("ephemeral port not reported")
	}
	res, err := s.Accept()
	if err != nil {
		t.Fatalf("Accept on idle socket returned error: %v", err)
	}
	if !res.WouldBlock || res.FD != -1 {
		t.Fatalf("expected would-block result, got %+v", res)
	}
}

func TestListen_AcceptLoopback(t *testing.T) {
	s, err := tcp.Listen(context.Background(), "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	c, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(s.Port())))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	res := acceptWithin(t, s, 2*time.Second)
	defer tcp.CloseFD(res.FD)
	if res.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want 127.0.0.1", res.Host)
	}
	local := c.LocalAddr().(*net.TCPAddr)
	if int(res.Peer.Port()) != local.Port {
		t.Errorf("peer port = %d, want %d", res.Peer.Port(), local.Port)
	}

	if _, err := c.Write([]byte("NICK x\r\n")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 64)
	var n int
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err = tcp.Recv(res.FD, buf)
		if !errors.Is(err, api.ErrWouldBlock) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if string(buf[:n]) != "NICK x\r\n" {
		t.Errorf("Recv = %q", buf[:n])
	}

	c.Close()
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, err = tcp.Recv(res.FD, buf)
		if !errors.Is(err, api.ErrWouldBlock) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !errors.Is(err, io.EOF) {
		t.Errorf("Recv after peer close = %v, want io.EOF", err)
	}
}

func TestListen_WildcardNormalizesMappedPeers(t *testing.T) {
	s, err := tcp.Listen(context.Background(), "*", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	c, err := net.Dial("tcp4", net.JoinHostPort("127.0.0.1", strconv.Itoa(s.Port())))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	res := acceptWithin(t, s, 2*time.Second)
	defer tcp.CloseFD(res.FD)
	if res.Host != "127.0.0.1" {
		t.Errorf("Host = %q, want 127.0.0.1 (peer %s)", res.Host, res.Peer)
	}
}

func TestListen_AddressInUse(t *testing.T) {
	s, err := tcp.Listen(context.Background(), "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := tcp.Listen(context.Background(), "127.0.0.1", s.Port()); err == nil {
		t.Fatal("second bind on the same port succeeded")
	}
}

func TestListen_RejectsBadPort(t *testing.T) {
	if _, err := tcp.Listen(context.Background(), "127.0.0.1", 70000); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestSocket_CloseIsIdempotent(t *testing.T) {
	s, err := tcp.Listen(context.Background(), "127.0.0.1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if s.FD() != -1 {
		t.Errorf("FD after Close = %d", s.FD())
	}
}
