// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics, and debug introspection for the ircd core.
//
// Provides:
//   - The daemon configuration file (YAML) and its validation
//   - Per-listener counters safe to read from any goroutine
//   - Named debug probes aggregated into a state dump
package control
