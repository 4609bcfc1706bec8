// File: api/shutdown.go
// Package api defines unified graceful shutdown contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// GracefulShutdown is implemented by components that own sockets or
// goroutines and must release them before the process exits.
type GracefulShutdown interface {
	// Shutdown requests termination and releases owned resources.
	Shutdown() error
}
