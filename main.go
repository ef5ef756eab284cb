// matla manages TLA+ projects and drives the TLC and Apalache model
// checkers.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"matla/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)

	code, err := cmd.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		cmd.PrintError(os.Stderr, err)
	}
	os.Exit(code)
}
