// File: cmd/ircd/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ircd daemon entry point: flags, configuration, PID file, logging, and
// signal-driven shutdown around the listener core. Runs in the foreground.

package main

import (
	"context"

	"github.com/scott-cotton/cli"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}
