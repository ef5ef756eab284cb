package core

import (
	"fmt"
	"os"

	"matla/internal/cli"
	"matla/internal/install"
	"matla/project"
	"matla/util"
)

// ── mode builders ────────────────────────────────────────────────────
//
// A builder turns the options of a matched mode into a Mode. It only
// checks and copies options: side effects belong in Run.

func buildSetup(o cli.Options, env *Env) (Mode, error) {
	if err := noArguments(o); err != nil {
		return nil, err
	}
	if o.JarPath != "" {
		st, err := os.Stat(o.JarPath)
		if err != nil {
			return nil, fmt.Errorf("--tla2tools: %w", err)
		}
		if st.IsDir() {
			return nil, fmt.Errorf("--tla2tools: `%s` is a directory", o.JarPath)
		}
	}
	return &Setup{
		Installer: env.Installer(),
		Options:   install.SetupOptions{JarPath: o.JarPath, Overwrite: o.Overwrite},
	}, nil
}

func buildUninstall(o cli.Options, env *Env) (Mode, error) {
	if err := noArguments(o); err != nil {
		return nil, err
	}
	return &Uninstall{Installer: env.Installer(), Yes: o.Yes}, nil
}

func buildUpdate(o cli.Options, env *Env) (Mode, error) {
	if err := noArguments(o); err != nil {
		return nil, err
	}
	return &Update{Installer: env.Installer(), env: env}, nil
}

func buildInit(o cli.Options, env *Env) (Mode, error) {
	if err := noArguments(o); err != nil {
		return nil, err
	}
	return &Init{Path: o.ProjectPath, Name: o.Name, Gitignore: !o.NoGitignore, env: env}, nil
}

func buildClean(o cli.Options, env *Env) (Mode, error) {
	if err := noArguments(o); err != nil {
		return nil, err
	}
	return &Clean{Path: o.ProjectPath, env: env}, nil
}

func buildTest(o cli.Options, env *Env) (Mode, error) {
	filter, err := atMostOne(o, "FILTER")
	if err != nil {
		return nil, err
	}
	return &Test{
		Target: project.NewTest(o.ProjectPath, o.Release),
		Filter: filter,
		Tail:   util.SplitArgs(o.Trailing),
		env:    env,
	}, nil
}

func buildTLC(o cli.Options, env *Env) (Mode, error) {
	if err := toolOptionsOnly(o); err != nil {
		return nil, err
	}
	return &TLC{Delegate: Delegate{
		Target:     project.NewRun(o.ProjectPath, o.Release),
		Tail:       util.SplitArgs(o.Trailing),
		ShowConfig: o.ShowConfig,
		env:        env,
	}}, nil
}

func buildApalache(o cli.Options, env *Env) (Mode, error) {
	if err := toolOptionsOnly(o); err != nil {
		return nil, err
	}
	return &Apalache{Delegate: Delegate{
		Target:     project.NewRun(o.ProjectPath, true),
		Tail:       util.SplitArgs(o.Trailing),
		ShowConfig: o.ShowConfig,
		env:        env,
	}}, nil
}

func buildRun(o cli.Options, env *Env) (Mode, error) {
	module, err := atMostOne(o, "MODULE")
	if err != nil {
		return nil, err
	}
	return &Run{Delegate: Delegate{
		Target:     project.NewRun(o.ProjectPath, o.Release),
		Module:     module,
		Tail:       util.SplitArgs(o.Trailing),
		ShowConfig: o.ShowConfig,
		env:        env,
	}}, nil
}

// ── shared checks ────────────────────────────────────────────────────

func noArguments(o cli.Options) error {
	if len(o.Positional) > 0 {
		return fmt.Errorf("unexpected argument `%s`", o.Positional[0])
	}
	if len(o.Trailing) > 0 {
		return fmt.Errorf("unexpected arguments after `--`")
	}
	return nil
}

func toolOptionsOnly(o cli.Options) error {
	if len(o.Positional) > 0 {
		return fmt.Errorf("unexpected argument `%s`, pass tool options after `--`", o.Positional[0])
	}
	return nil
}

func atMostOne(o cli.Options, what string) (string, error) {
	switch len(o.Positional) {
	case 0:
		return "", nil
	case 1:
		return o.Positional[0], nil
	default:
		return "", fmt.Errorf("expected at most one %s, got %d arguments", what, len(o.Positional))
	}
}
