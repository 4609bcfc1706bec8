//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - Linux socket implementation on golang.org/x/sys/unix.

package tcp

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"golang.org/x/sys/unix"
)

// Socket is a non-blocking listening TCP socket.
type Socket struct {
	fd     int
	bindTo string
	addr   netip.AddrPort
}

// Listen opens a non-blocking TCP listening socket on bindTo:port. "*"
// binds every interface with a dual-stack IPv6 socket, or IPv4 0.0.0.0 when
// the host has no IPv6. Port 0 selects an ephemeral port.
func Listen(ctx context.Context, bindTo string, port int) (*Socket, error) {
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("listen %s: port out of range", HostPort(bindTo, port))
	}
	if IsWildcard(bindTo) {
		s, err := listenAddr(netip.IPv6Unspecified(), port, true)
		if errors.Is(err, unix.EAFNOSUPPORT) {
			s, err = listenAddr(netip.IPv4Unspecified(), port, false)
		}
		if err != nil {
			return nil, fmt.Errorf("listen %s: %w", HostPort(bindTo, port), err)
		}
		s.bindTo = WildcardHost
		return s, nil
	}
	ip, err := resolveBind(ctx, bindTo)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", HostPort(bindTo, port), err)
	}
	s, err := listenAddr(ip, port, false)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", HostPort(bindTo, port), err)
	}
	s.bindTo = bindTo
	return s, nil
}

func listenAddr(ip netip.Addr, port int, dualStack bool) (*Socket, error) {
	var (
		family int
		sa     unix.Sockaddr
	)
	if ip.Is6() {
		family = unix.AF_INET6
		sa = &unix.SockaddrInet6{Port: port, Addr: ip.As16()}
	} else {
		family = unix.AF_INET
		sa = &unix.SockaddrInet4{Port: port, Addr: ip.As4()}
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setsockopt SO_REUSEADDR: %w", err)
	}
	if family == unix.AF_INET6 {
		v6only := 1
		if dualStack {
			v6only = 0
		}
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, v6only); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("setsockopt IPV6_V6ONLY: %w", err)
		}
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind: %w", err)
	}
	if err := unix.Listen(fd, unix.SOMAXCONN); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("listen: %w", err)
	}
	local, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("getsockname: %w", err)
	}
	addr, _ := sockaddrToAddrPort(local)
	return &Socket{fd: fd, addr: addr}, nil
}

// FD returns the listening descriptor.
func (s *Socket) FD() int { return s.fd }

// Port returns the bound port, which differs from the requested one when
// Listen was given port 0.
func (s *Socket) Port() int { return int(s.addr.Port()) }

// Addr returns the bound local address.
func (s *Socket) Addr() netip.AddrPort { return s.addr }

// Accept takes one pending connection without blocking. The accepted
// descriptor is non-blocking and close-on-exec.
func (s *Socket) Accept() (AcceptResult, error) {
	for {
		nfd, sa, err := unix.Accept4(s.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == nil {
			peer, _ := sockaddrToAddrPort(sa)
			return AcceptResult{
				FD:   nfd,
				Peer: peer,
				Host: NormalizeHost(peer.Addr().String()),
			}, nil
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
			return AcceptResult{WouldBlock: true, FD: -1}, nil
		default:
			return AcceptResult{FD: -1}, fmt.Errorf("accept: %w", err)
		}
	}
}

// Close closes the listening descriptor.
func (s *Socket) Close() error {
	if s.fd < 0 {
		return nil
	}
	err := unix.Close(s.fd)
	s.fd = -1
	return err
}

// IsTransientAcceptError reports accept failures caused by the peer or by a
// signal; the listening socket itself is still healthy.
func IsTransientAcceptError(err error) bool {
	return errors.Is(err, unix.ECONNABORTED) ||
		errors.Is(err, unix.EINTR) ||
		errors.Is(err, unix.EPROTO) ||
		errors.Is(err, unix.EPERM)
}

// IsExhaustedAcceptError reports accept failures caused by descriptor or
// memory limits.
func IsExhaustedAcceptError(err error) bool {
	return errors.Is(err, unix.EMFILE) ||
		errors.Is(err, unix.ENFILE) ||
		errors.Is(err, unix.ENOBUFS) ||
		errors.Is(err, unix.ENOMEM)
}

func sockaddrToAddrPort(sa unix.Sockaddr) (netip.AddrPort, bool) {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(a.Addr), uint16(a.Port)), true
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(a.Addr), uint16(a.Port)), true
	}
	return netip.AddrPort{}, false
}
