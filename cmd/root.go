// Package cmd parses the command line and hands the invocation to the
// mode dispatcher.
package cmd

import (
	"context"
	"fmt"
	"io"

	"matla/config"
	"matla/internal/cli"
	"matla/internal/core"
	"matla/internal/errors"
	"matla/internal/style"
	"matla/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X matla/cmd.version=0.2.0"
var version = "0.1.0" //nolint:gochecknoglobals

// Execute runs matla on args and returns the process exit code. Mode
// output goes to stdout, logs to stderr. A non-nil error always comes
// with exit code 1.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) (int, error) {
	// ── parse ────────────────────────────────────────────────────
	inv, err := cli.Parse(args)
	if err != nil {
		return 1, err
	}

	if inv.Version() {
		fmt.Fprintf(stdout, "matla %s\n", version)
		return 0, nil
	}
	if inv.Help() {
		if k, ok := inv.Kind(); ok {
			cli.ModeUsage(stdout, k)
		} else {
			cli.Usage(stdout, version)
		}
		return 0, nil
	}

	// ── ambient setup ────────────────────────────────────────────
	logger := util.NewLogger(max(inv.Verbosity(), config.VerbosityFromEnv()))
	logger.SetOutput(stderr)

	colorFixed := true
	when := inv.Color()
	if when == "" {
		when = config.ColorFromEnv()
	}
	if when == "" {
		when, colorFixed = config.DefaultColor, false
	}
	mode, err := style.ParseMode(when)
	if err != nil {
		return 1, &errors.ConfigError{Field: "color", Value: when, Message: err.Error(), Hint: "use auto, always or never"}
	}

	userDir, err := config.UserDir()
	if err != nil {
		return 1, err
	}
	logger.Debug("user directory is `%s`", userDir)

	env := core.NewEnv(stdout, logger, style.New(mode, stdout), userDir)
	env.ColorFixed = colorFixed

	// ── dispatch ─────────────────────────────────────────────────
	res := core.NewDispatcher(env).Dispatch(ctx, inv)
	switch res.Status {
	case core.NoMatch:
		cli.Usage(stdout, version)
		return 0, nil
	case core.Failed:
		return 1, res.Err
	default:
		return res.ExitCode(), nil
	}
}

// PrintError reports err on w, prefixed by its category.
func PrintError(w io.Writer, err error) {
	s := style.New(style.Auto, w)
	fmt.Fprintf(w, "%s %s\n", s.Fatal.Sprintf("matla: %s:", errors.Classify(err)), err)
}
