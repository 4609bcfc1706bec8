// File: cmd/ircd/commands.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/scott-cotton/cli"

	"github.com/hannahherbig/avendesora/api"
	"github.com/hannahherbig/avendesora/control"
	"github.com/hannahherbig/avendesora/facade"
	"github.com/hannahherbig/avendesora/internal/logging"
	"github.com/hannahherbig/avendesora/internal/pidfile"
)

// MainConfig holds the command-line options.
type MainConfig struct {
	Config  string `cli:"name=config aliases=c desc='configuration file' default=etc/config.yml"`
	PIDFile string `cli:"name=pidfile desc='pid file path' default=var/ircd.pid"`
	Debug   bool   `cli:"name=d aliases=debug desc='enable debug logging'"`
	Quiet   bool   `cli:"name=q aliases=quiet desc='disable regular logging'"`
	Version bool   `cli:"name=v aliases=version desc='display version information'"`

	Main *cli.Command
}

// MainCommand builds the ircd command.
func MainCommand() *cli.Command {
	cfg := &MainConfig{
		Config:  "etc/config.yml",
		PIDFile: "var/ircd.pid",
	}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, facade.Name).
		WithSynopsis("ircd [-config file] [-pidfile file] [-d] [-q] [-v]").
		WithDescription("ircd runs the chat daemon's TCP listeners in the foreground.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return ircdMain(cfg, cc, args)
		})
}

func ircdMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	if _, err := cfg.Main.Parse(cc, args); err != nil {
		return err
	}
	fmt.Fprintf(cc.Out, "%s: version %s [%s/%s]\n", facade.Name, facade.Version, runtime.GOOS, runtime.GOARCH)
	if cfg.Version {
		return nil
	}
	if os.Geteuid() == 0 {
		return fmt.Errorf("%s: refuses to run as root", facade.Name)
	}

	conf, err := control.Load(cfg.Config)
	if err != nil {
		return fmt.Errorf("%s: configure error: %w", facade.Name, err)
	}
	logger := newLogger(cfg, conf, cc.Out)
	if cfg.Debug {
		debugWarning(cc.Out)
	}

	pf, err := pidfile.Acquire(cfg.PIDFile)
	if err != nil {
		return fmt.Errorf("%s: %w", facade.Name, err)
	}
	defer pf.Release()
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("%s: %w", facade.Name, err)
	}
	announce(cc.Out, pf.PID(), wd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	signal.Ignore(syscall.SIGPIPE)

	return serve(ctx, conf, logger)
}

func debugWarning(out io.Writer) {
	fmt.Fprintf(out, "%s: warning: debug mode enabled\n", facade.Name)
	fmt.Fprintf(out, "%s: warning: all streams will be logged in the clear!\n", facade.Name)
}

func announce(out io.Writer, pid int, wd string) {
	fmt.Fprintf(out, "%s: pid %d\n", facade.Name, pid)
	fmt.Fprintf(out, "%s: running in foreground mode from %s\n", facade.Name, wd)
}

// serve runs the daemon until ctx is cancelled or every listener fails.
func serve(ctx context.Context, conf *control.Config, logger api.Logger) error {
	app, err := facade.New(conf, logger)
	if err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	err = app.Join()
	if ctx.Err() != nil {
		logger.Log(api.LevelInfo, "shutting down")
	}
	return err
}

func newLogger(cfg *MainConfig, conf *control.Config, out io.Writer) api.Logger {
	switch {
	case cfg.Debug:
		return logging.New(out, api.LevelDebug)
	case cfg.Quiet:
		return logging.Discard()
	default:
		return logging.New(out, conf.LogLevel())
	}
}
