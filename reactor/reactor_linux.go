//go:build linux
// +build linux

// File: reactor/reactor_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux poll(2)-based selector with a self-pipe wakeup.

package reactor

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// pollSelector rebuilds its pollfd set on every Wait, so interest changes
// between iterations need no registration calls.
type pollSelector struct {
	mu     sync.Mutex // guards closed and the pipe fds against Wakeup/Close races
	closed bool
	rfd    int
	wfd    int
	fds    []unix.PollFd
	drain  [64]byte
}

// NewSelector constructs a poll-based Selector for Linux.
func NewSelector() (Selector, error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("reactor: wakeup pipe: %w", err)
	}
	return &pollSelector{rfd: p[0], wfd: p[1]}, nil
}

func (s *pollSelector) Wait(interest []Interest) ([]Ready, error) {
	s.fds = s.fds[:0]
	for _, in := range interest {
		var ev int16
		if in.Events&EventRead != 0 {
			ev |= unix.POLLIN
		}
		if in.Events&EventWrite != 0 {
			ev |= unix.POLLOUT
		}
		s.fds = append(s.fds, unix.PollFd{Fd: int32(in.FD), Events: ev})
	}
	s.fds = append(s.fds, unix.PollFd{Fd: int32(s.rfd), Events: unix.POLLIN})

	n, err := unix.Poll(s.fds, -1)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, fmt.Errorf("reactor: poll: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	ready := make([]Ready, 0, n)
	last := len(s.fds) - 1
	for i, pfd := range s.fds {
		if pfd.Revents == 0 {
			continue
		}
		if i == last {
			s.drainWakeups()
			continue
		}
		var t FDEventType
		if pfd.Revents&unix.POLLIN != 0 {
			t |= EventRead
		}
		if pfd.Revents&unix.POLLOUT != 0 {
			t |= EventWrite
		}
		if pfd.Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
			t |= EventError
		}
		ready = append(ready, Ready{FD: int(pfd.Fd), Events: t})
	}
	return ready, nil
}

func (s *pollSelector) drainWakeups() {
	for {
		n, err := unix.Read(s.rfd, s.drain[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (s *pollSelector) Wakeup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	_, err := unix.Write(s.wfd, []byte{1})
	if err != nil && !errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("reactor: wakeup: %w", err)
	}
	return nil
}

func (s *pollSelector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return errors.Join(unix.Close(s.rfd), unix.Close(s.wfd))
}
