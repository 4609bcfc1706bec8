// File: facade/ircd.go
// Unified facade layer for the ircd network core.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Application owns the listeners built from configuration. It fans out one
// control loop per listener and fans back in on Join; it has no business
// logic of its own.

package facade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hannahherbig/avendesora/api"
	"github.com/hannahherbig/avendesora/control"
	"github.com/hannahherbig/avendesora/server"
)

// Project identity.
const (
	Name    = "ircd"
	Version = "0.1.0"
)

// Application aggregates every listener of the daemon.
type Application struct {
	config    *control.Config
	logger    api.Logger
	listeners []*server.Listener
	probes    *control.DebugProbes
	startedAt time.Time

	mu      sync.Mutex
	started bool
	stopped bool
}

var (
	_ api.GracefulShutdown = (*Application)(nil)
	_ api.Debug            = (*Application)(nil)
)

// New binds one listener per configured listen entry, all sharing logger.
// If any bind fails, the listeners already opened are closed and the error
// is returned.
func New(cfg *control.Config, logger api.Logger, opts ...server.ListenerOption) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", api.ErrInvalidConfig)
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	app := &Application{
		config: cfg,
		logger: logger,
		probes: control.NewDebugProbes(),
	}
	for _, spec := range cfg.Listen {
		l, err := server.NewListener(spec.BindTo, spec.Port, logger, opts...)
		if err != nil {
			app.closeAll()
			return nil, fmt.Errorf("listener %s: %w", spec, err)
		}
		app.listeners = append(app.listeners, l)
		// Keyed by bound port: port 0 entries would otherwise collide.
		key := fmt.Sprintf("listener %s:%d", l.BindAddress(), l.Port())
		app.probes.RegisterProbe(key, func() any { return l.DumpState() })
	}
	return app, nil
}

// Listeners returns the listeners in configuration order.
func (a *Application) Listeners() []*server.Listener {
	return append([]*server.Listener(nil), a.listeners...)
}

// Config returns the configuration the application was built from.
func (a *Application) Config() *control.Config { return a.config }

// Info describes the running daemon.
func (a *Application) Info() api.ServiceInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return api.ServiceInfo{Name: a.config.Name, Version: Version, StartedAt: a.startedAt}
}

// Start launches every listener loop. Cancelling ctx stops them all.
func (a *Application) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return api.ErrAlreadyRunning
	}
	a.started = true
	a.startedAt = time.Now()
	for _, l := range a.listeners {
		l.Start(ctx)
	}
	a.logger.Log(api.LevelInfo, fmt.Sprintf("%s %s started", a.config.Name, Version), "listeners", len(a.listeners))
	return nil
}

// Join blocks until every listener loop has returned. Listener failures are
// logged at fatal level and returned joined. Joining an application that was
// neither started nor shut down returns api.ErrNotStarted.
func (a *Application) Join() error {
	a.mu.Lock()
	idle := !a.started && !a.stopped
	a.mu.Unlock()
	if idle {
		return api.ErrNotStarted
	}
	errs := make([]error, len(a.listeners))
	var wg sync.WaitGroup
	for i, l := range a.listeners {
		wg.Add(1)
		go func(i int, l *server.Listener) {
			defer wg.Done()
			if err := l.Join(); err != nil {
				a.logger.Log(api.LevelFatal, "listener "+l.HostPort()+" terminated", "error", err)
				errs[i] = fmt.Errorf("listener %s: %w", l.HostPort(), err)
			}
		}(i, l)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Shutdown stops every listener and waits for them to release their
// sockets.
func (a *Application) Shutdown() error {
	a.mu.Lock()
	a.stopped = true
	a.mu.Unlock()
	for _, l := range a.listeners {
		l.Stop()
	}
	return a.closeAll()
}

// DumpState returns one entry per listener.
func (a *Application) DumpState() map[string]any {
	return a.probes.DumpState()
}

func (a *Application) closeAll() error {
	var errs []error
	for _, l := range a.listeners {
		if err := l.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("listener %s: %w", l.HostPort(), err))
		}
	}
	return errors.Join(errs...)
}
