//go:build !linux
// +build !linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - stub for unsupported platforms.

package tcp

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/hannahherbig/avendesora/api"
)

// Socket is unavailable on this platform.
type Socket struct{}

// Listen always fails on unsupported platforms.
func Listen(_ context.Context, bindTo string, port int) (*Socket, error) {
	return nil, fmt.Errorf("listen %s: %w", HostPort(bindTo, port), api.ErrUnsupportedPlatform)
}

func (s *Socket) FD() int                       { return -1 }
func (s *Socket) Port() int                     { return 0 }
func (s *Socket) Addr() netip.AddrPort          { return netip.AddrPort{} }
func (s *Socket) Close() error                  { return nil }
func (s *Socket) Accept() (AcceptResult, error) { return AcceptResult{FD: -1}, api.ErrUnsupportedPlatform }

func IsTransientAcceptError(error) bool { return false }
func IsExhaustedAcceptError(error) bool { return false }

func Recv(int, []byte) (int, error) { return 0, api.ErrUnsupportedPlatform }
func Send(int, []byte) (int, error) { return 0, api.ErrUnsupportedPlatform }
func CloseFD(int) error             { return api.ErrUnsupportedPlatform }
