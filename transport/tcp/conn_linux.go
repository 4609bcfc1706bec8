//go:build linux
// +build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"

	"github.com/hannahherbig/avendesora/api"
)

// Recv performs one non-blocking read on a connected descriptor.
// api.ErrWouldBlock means no data is available; io.EOF means the peer
// closed its side.
func Recv(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Read(fd, p)
		switch {
		case err == nil && n == 0 && len(p) > 0:
			return 0, io.EOF
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, api.ErrWouldBlock
		default:
			return 0, err
		}
	}
}

// Send performs one non-blocking write; a short count is not an error.
func Send(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Write(fd, p)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, api.ErrWouldBlock
		default:
			return 0, err
		}
	}
}

// CloseFD closes a connected descriptor.
func CloseFD(fd int) error {
	return unix.Close(fd)
}
