// File: server/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package server implements the per-port connection acceptor of the ircd.
//
// A Listener owns one listening socket, one EventQueue and the LocalClients
// accepted on it. Its control loop runs on a single goroutine:
//
//  1. reap clients marked dead;
//  2. if the listening socket died, close it and post a dead event;
//  3. drain the event queue (accepts, rebinds, protocol handlers);
//  4. block on the selector with no timeout;
//  5. translate readiness into connection, read_ready and write_ready events.
//
// Nothing in the loop takes locks except to publish the client registry to
// other goroutines. Handlers run on the loop goroutine and must not block.
package server
