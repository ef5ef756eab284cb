package core

import (
	"context"
	"fmt"

	"matla/internal/cli"
	"matla/internal/install"
	"matla/internal/testrun"
	"matla/project"
)

// ── user directory modes ─────────────────────────────────────────────

// Setup installs the toolchain and writes the user configuration.
type Setup struct {
	sealedMode
	Installer *install.Installer
	Options   install.SetupOptions
}

func (*Setup) Kind() cli.Kind { return cli.Setup }

func (m *Setup) Run(ctx context.Context) (Outcome, error) {
	return Done(), m.Installer.Setup(ctx, m.Options)
}

// Uninstall removes the user directory.
type Uninstall struct {
	sealedMode
	Installer *install.Installer
	Yes       bool
}

func (*Uninstall) Kind() cli.Kind { return cli.Uninstall }

func (m *Uninstall) Run(context.Context) (Outcome, error) {
	return Done(), m.Installer.Uninstall(m.Yes)
}

// Update downloads tla2tools.jar again.
type Update struct {
	sealedMode
	Installer *install.Installer

	env *Env
}

func (*Update) Kind() cli.Kind { return cli.Update }

func (m *Update) Run(ctx context.Context) (Outcome, error) {
	return Done(), m.Installer.Update(ctx, m.env.Config)
}

// ── project modes ────────────────────────────────────────────────────

// Init creates a project manifest.
type Init struct {
	sealedMode
	Path      string
	Name      string
	Gitignore bool

	env *Env
}

func (*Init) Kind() cli.Kind { return cli.Init }

func (m *Init) Run(context.Context) (Outcome, error) {
	path, err := project.Init(m.Path, m.Name, m.Gitignore)
	if err != nil {
		return Outcome{}, err
	}
	fmt.Fprintf(m.env.Out, "created `%s`\n", path)
	return Done(), nil
}

// Clean removes a project's target directory.
type Clean struct {
	sealedMode
	Path string

	env *Env
}

func (*Clean) Kind() cli.Kind { return cli.Clean }

func (m *Clean) Run(context.Context) (Outcome, error) {
	p, err := m.env.LoadProject(m.Path)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load project: %w", err)
	}
	removed, err := p.Clean()
	if err != nil {
		return Outcome{}, err
	}
	if removed {
		fmt.Fprintf(m.env.Out, "removed `%s/%s`\n", p.Root, project.TargetDir)
	} else {
		m.env.Logger.Info("nothing to clean in `%s`", p.Root)
	}
	return Done(), nil
}

// Test runs the project's test modules.
type Test struct {
	sealedMode
	Target project.Target
	Filter string
	Tail   []string

	env *Env
}

func (*Test) Kind() cli.Kind { return cli.Test }

func (m *Test) Run(ctx context.Context) (Outcome, error) {
	p, err := m.env.LoadProject(m.Target.Path)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load project: %w", err)
	}
	runnable, err := p.IntoRunnable(m.Target)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create build target: %w", err)
	}
	cases, err := testrun.Discover(p, m.Filter)
	if err != nil {
		return Outcome{}, err
	}

	r := &testrun.Runner{Out: m.env.Out, Styles: m.env.Styles, Logger: m.env.Logger.Named("test")}
	if _, err := r.Run(ctx, runnable, cases, m.Tail); err != nil {
		return Outcome{}, err
	}
	return Done(), nil
}

// ── delegating modes ─────────────────────────────────────────────────

// TLC calls TLC on the project's entry module with the trailing args.
type TLC struct {
	sealedMode
	Delegate
}

func (*TLC) Kind() cli.Kind { return cli.TLC }

func (m *TLC) Run(context.Context) (Outcome, error) { return m.run(project.TLC) }

// Apalache calls Apalache on the project's entry module.
type Apalache struct {
	sealedMode
	Delegate
}

func (*Apalache) Kind() cli.Kind { return cli.Apalache }

func (m *Apalache) Run(context.Context) (Outcome, error) { return m.run(project.Apalache) }

// Run model checks one module of the project with TLC.
type Run struct {
	sealedMode
	Delegate
}

func (*Run) Kind() cli.Kind { return cli.Run }

func (m *Run) Run(context.Context) (Outcome, error) { return m.run(project.TLC) }
