package core

import (
	"context"
	"fmt"

	"matla/internal/cli"
	"matla/internal/errors"
)

// Phase names, in dispatch order.
const (
	PreUserLoad    = "pre-user-load"
	PreProjectLoad = "pre-project-load"
	PostLoading    = "post-loading"
)

// Candidate is a mode a phase may run.
type Candidate struct {
	Kind  cli.Kind
	Build func(cli.Options, *Env) (Mode, error)
}

// Phase is an ordered group of candidates sharing a preparation step.
// Prepare runs only when one of the candidates matched, before it is
// built.
type Phase struct {
	Name       string
	Prepare    func(ctx context.Context, opts cli.Options) error
	Candidates []Candidate
}

// Status tells how a phase ended.
type Status int

const (
	NoMatch   Status = iota // no candidate applies to the invocation
	Completed               // a mode ran to completion
	Failed                  // a mode, or the phase preparation, failed
)

func (s Status) String() string {
	switch s {
	case NoMatch:
		return "no match"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// PhaseResult reports what a phase did. Kind and Phase are only set when
// a candidate matched; Outcome only when Status is Completed; Err only
// when it is Failed.
type PhaseResult struct {
	Status  Status
	Phase   string
	Kind    cli.Kind
	Outcome Outcome
	Err     error
}

// ExitCode is the tool's exit code for delegating modes, 0 otherwise.
func (r PhaseResult) ExitCode() int {
	code, _ := r.Outcome.Code()
	return code
}

// Dispatcher selects and runs the single mode an invocation asks for.
type Dispatcher struct {
	Env    *Env
	Phases []Phase
}

// NewDispatcher returns a Dispatcher with the default phases.
func NewDispatcher(env *Env) *Dispatcher {
	return &Dispatcher{Env: env, Phases: DefaultPhases(env)}
}

// DefaultPhases lists matla's modes: setup and uninstall run before the
// user configuration is read, then the modes working without a loaded
// project, then the ones needing it.
func DefaultPhases(env *Env) []Phase {
	loadConfig := func(context.Context, cli.Options) error {
		if err := env.LoadConfig(); err != nil {
			return fmt.Errorf("failed to load user configuration: %w", err)
		}
		return nil
	}
	loadProject := func(ctx context.Context, o cli.Options) error {
		if err := loadConfig(ctx, o); err != nil {
			return err
		}
		if _, err := env.LoadProject(o.ProjectPath); err != nil {
			return fmt.Errorf("failed to load project from `%s`: %w", o.ProjectPath, err)
		}
		return nil
	}

	return []Phase{
		{
			Name: PreUserLoad,
			Candidates: []Candidate{
				{cli.Setup, buildSetup},
				{cli.Uninstall, buildUninstall},
			},
		},
		{
			Name:    PreProjectLoad,
			Prepare: loadConfig,
			Candidates: []Candidate{
				{cli.Init, buildInit},
				{cli.Update, buildUpdate},
				{cli.TLC, buildTLC},
				{cli.Apalache, buildApalache},
			},
		},
		{
			Name:    PostLoading,
			Prepare: loadProject,
			Candidates: []Candidate{
				{cli.Run, buildRun},
				{cli.Test, buildTest},
				{cli.Clean, buildClean},
			},
		},
	}
}

// TryPhase runs the first candidate of p that inv selects. Later
// candidates are never looked at.
func (d *Dispatcher) TryPhase(ctx context.Context, p Phase, inv *cli.Invocation) PhaseResult {
	for _, c := range p.Candidates {
		opts, ok := inv.Mode(c.Kind)
		if !ok {
			continue
		}
		res := PhaseResult{Phase: p.Name, Kind: c.Kind}
		log := d.Env.Logger
		log.Debug("phase %s: %s matches", p.Name, c.Kind)

		if p.Prepare != nil {
			if err := p.Prepare(ctx, opts); err != nil {
				return res.fail(&errors.ModeError{Mode: c.Kind.String(), Stage: errors.StageInit, Err: err})
			}
		}

		mode, err := c.Build(opts, d.Env)
		if err != nil {
			return res.fail(&errors.ModeError{Mode: c.Kind.String(), Stage: errors.StageInit, Err: err})
		}

		log.Verbose("running %s mode", mode.Kind())
		out, err := mode.Run(ctx)
		if err != nil {
			return res.fail(&errors.ModeError{Mode: c.Kind.String(), Stage: errors.StageRun, Err: err})
		}
		res.Status = Completed
		res.Outcome = out
		log.Debug("%s mode: %s", c.Kind, out)
		return res
	}
	return PhaseResult{Status: NoMatch}
}

func (r PhaseResult) fail(err error) PhaseResult {
	r.Status = Failed
	r.Err = err
	return r
}

// TryPreUserLoad runs the pre-user-load phase.
func (d *Dispatcher) TryPreUserLoad(ctx context.Context, inv *cli.Invocation) PhaseResult {
	return d.tryNamed(ctx, PreUserLoad, inv)
}

// TryPreProjectLoad runs the pre-project-load phase.
func (d *Dispatcher) TryPreProjectLoad(ctx context.Context, inv *cli.Invocation) PhaseResult {
	return d.tryNamed(ctx, PreProjectLoad, inv)
}

// TryPostLoading runs the post-loading phase.
func (d *Dispatcher) TryPostLoading(ctx context.Context, inv *cli.Invocation) PhaseResult {
	return d.tryNamed(ctx, PostLoading, inv)
}

func (d *Dispatcher) tryNamed(ctx context.Context, name string, inv *cli.Invocation) PhaseResult {
	for _, p := range d.Phases {
		if p.Name == name {
			return d.TryPhase(ctx, p, inv)
		}
	}
	return PhaseResult{Status: NoMatch}
}

// Dispatch runs the phases in order and returns the first result that
// is not NoMatch.
func (d *Dispatcher) Dispatch(ctx context.Context, inv *cli.Invocation) PhaseResult {
	for _, p := range d.Phases {
		if res := d.TryPhase(ctx, p, inv); res.Status != NoMatch {
			return res
		}
	}
	return PhaseResult{Status: NoMatch}
}
