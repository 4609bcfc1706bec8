// File: api/logger.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "strings"

// Level is the severity of a log record.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ParseLevel maps a level name to a Level. "warn" is accepted as an alias.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warning", "warn":
		return LevelWarning, true
	case "error":
		return LevelError, true
	case "fatal":
		return LevelFatal, true
	}
	return LevelInfo, false
}

// Logger is the leveled sink listeners and clients write to.
// Implementations must be safe for concurrent use; one sink is shared by
// every listener goroutine.
type Logger interface {
	// Log emits msg at level with alternating key/value args.
	Log(level Level, msg string, args ...any)
	// With returns a Logger that adds args to every record.
	With(args ...any) Logger
}
