// File: internal/logging/logging.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Leveled log sink shared by every listener. Records are written by slog's
// text handler; level names are colored when the output is a terminal.

package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/hannahherbig/avendesora/api"
)

// slog has no warning/fatal names of its own; these sit on its scale so
// filtering by level keeps working.
const (
	slogWarning = slog.LevelWarn
	slogFatal   = slog.LevelError + 4
)

var levelNames = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	slogWarning:     "WARNING",
	slog.LevelError: "ERROR",
	slogFatal:       "FATAL",
}

// Colors are forced on: the caller already decided the sink is a terminal,
// independent of whether stdout is.
var levelColors = func() map[slog.Level]*color.Color {
	m := map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgHiBlack),
		slog.LevelInfo:  color.New(color.FgGreen),
		slogWarning:     color.New(color.FgYellow),
		slog.LevelError: color.New(color.FgRed),
		slogFatal:       color.New(color.FgRed, color.Bold),
	}
	for _, c := range m {
		c.EnableColor()
	}
	return m
}()

type options struct {
	color     *bool
	timestamp bool
}

// Option customizes a Logger.
type Option func(*options)

// WithColor forces colored level names on or off instead of detecting a
// terminal.
func WithColor(on bool) Option {
	return func(o *options) { o.color = &on }
}

// WithoutTime drops the time attribute, mostly for deterministic tests.
func WithoutTime() Option {
	return func(o *options) { o.timestamp = false }
}

// Logger adapts *slog.Logger to api.Logger.
type Logger struct {
	l *slog.Logger
}

var _ api.Logger = (*Logger)(nil)

// New returns a Logger writing records at or above level to w.
func New(w io.Writer, level api.Level, opts ...Option) *Logger {
	o := options{timestamp: true}
	for _, fn := range opts {
		fn(&o)
	}
	colored := false
	if o.color != nil {
		colored = *o.color
	} else if f, ok := w.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	if colored {
		w = &colorWriter{w: w}
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: toSlog(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				if !o.timestamp {
					return slog.Attr{}
				}
			case slog.LevelKey:
				lvl, _ := a.Value.Any().(slog.Level)
				a.Value = slog.StringValue(levelName(lvl))
			}
			return a
		},
	})
	return &Logger{l: slog.New(h)}
}

// Discard returns a Logger that drops every record.
func Discard() *Logger {
	return &Logger{l: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slogFatal + 1}))}
}

// Log implements api.Logger.
func (lg *Logger) Log(level api.Level, msg string, args ...any) {
	lg.l.Log(context.Background(), toSlog(level), msg, args...)
}

// With implements api.Logger.
func (lg *Logger) With(args ...any) api.Logger {
	return &Logger{l: lg.l.With(args...)}
}

// Slog exposes the underlying logger.
func (lg *Logger) Slog() *slog.Logger {
	return lg.l
}

func toSlog(level api.Level) slog.Level {
	switch level {
	case api.LevelDebug:
		return slog.LevelDebug
	case api.LevelWarning:
		return slogWarning
	case api.LevelError:
		return slog.LevelError
	case api.LevelFatal:
		return slogFatal
	default:
		return slog.LevelInfo
	}
}

func levelName(lvl slog.Level) string {
	if name, ok := levelNames[lvl]; ok {
		return name
	}
	return lvl.String()
}

var levelKey = []byte(slog.LevelKey + "=")

// colorWriter paints the level value of each record. slog quotes attribute
// values holding control characters, so escapes are applied after
// formatting. The text handler issues exactly one Write per record.
type colorWriter struct {
	w io.Writer
}

func (cw *colorWriter) Write(p []byte) (int, error) {
	i := bytes.Index(p, levelKey)
	if i < 0 {
		return cw.w.Write(p)
	}
	start := i + len(levelKey)
	end := bytes.IndexByte(p[start:], ' ')
	if end < 0 {
		return cw.w.Write(p)
	}
	end += start
	name := string(p[start:end])

	var c *color.Color
	for lvl, n := range levelNames {
		if n == name {
			c = levelColors[lvl]
			break
		}
	}
	if c == nil {
		return cw.w.Write(p)
	}
	out := make([]byte, 0, len(p)+16)
	out = append(out, p[:start]...)
	out = append(out, c.Sprint(name)...)
	out = append(out, p[end:]...)
	if _, err := cw.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
