// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import "net/netip"

// AcceptResult is the outcome of one non-blocking accept. WouldBlock means
// no connection was pending; it is not an error.
type AcceptResult struct {
	WouldBlock bool
	FD         int
	Peer       netip.AddrPort
	// Host is the peer IP in text form with any IPv4-mapped prefix removed.
	Host string
}
