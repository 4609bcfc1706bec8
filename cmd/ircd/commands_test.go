//go:build linux
// +build linux

package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hannahherbig/avendesora/api"
	"github.com/hannahherbig/avendesora/control"
	"github.com/hannahherbig/avendesora/internal/logging"
)

func TestServe_StopsOnCancel(t *testing.T) {
	conf := control.DefaultConfig()
	conf.Name = "irc.test"
	conf.Listen = []control.ListenSpec{{BindTo: "127.0.0.1", Port: 0}}

	var buf bytes.Buffer
	logger := logging.New(&syncWriter{buf: &buf}, api.LevelInfo, logging.WithColor(false))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, conf, logger) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestNewLogger_Quiet(t *testing.T) {
	var buf bytes.Buffer
	conf := control.DefaultConfig()
	lg := newLogger(&MainConfig{Quiet: true}, conf, &buf)
	lg.Log(api.LevelFatal, "dropped")
	if buf.Len() != 0 {
		t.Errorf("quiet logger wrote %q", buf.String())
	}

	lg = newLogger(&MainConfig{Debug: true}, conf, &buf)
	lg.Log(api.LevelDebug, "kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("debug logger dropped record: %q", buf.String())
	}
}

func TestStartupBanner(t *testing.T) {
	var buf bytes.Buffer
	debugWarning(&buf)
	announce(&buf, 4242, "/srv/ircd")

	want := []string{
		"ircd: warning: debug mode enabled",
		"ircd: warning: all streams will be logged in the clear!",
		"ircd: pid 4242",
		"ircd: running in foreground mode from /srv/ircd",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("startup output mismatch (-want +got):\n%s", diff)
	}
}

type syncWriter struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}
