// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness selector a listener blocks on: a
// level-triggered multiplexed wait over a per-call interest set, with a
// self-pipe so another goroutine can interrupt an otherwise unbounded wait.
package reactor
