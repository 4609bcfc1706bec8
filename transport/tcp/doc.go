// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp owns raw listening sockets for the ircd core: dual-stack bind,
// non-blocking accept with an explicit would-block result, and peer address
// normalization. Sockets are plain descriptors so the reactor can poll them
// directly.
package tcp
