package core

import (
	"fmt"
	"io"

	"matla/internal/child"
	"matla/internal/errors"
	"matla/project"
)

// Delegate is the part shared by the modes that hand the project to an
// external tool.
type Delegate struct {
	Target     project.Target
	Module     string   // empty: the project's entry module
	Tail       []string // appended to the tool's arguments
	ShowConfig bool     // print the command before running it

	env *Env
}

func (d *Delegate) run(tool project.Tool) (Outcome, error) {
	env := d.env
	p, err := env.LoadProject(d.Target.Path)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load project: %w", err)
	}

	env.Logger.Info("creating actual build project")
	runnable, err := p.IntoRunnable(d.Target)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create build target: %w", err)
	}

	cmd, err := runnable.BuildCommand(tool, d.Module, d.Tail)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to generate %s command: %w", tool, err)
	}
	if d.ShowConfig {
		showCommand(env.Out, cmd)
	}
	return relay(env, tool.String(), cmd)
}

// relay runs cmd to completion, copying its output lines to env.Out in
// arrival order. stderr lines get a marker.
func relay(env *Env, name string, cmd child.Command) (Outcome, error) {
	r, err := child.Spawn(cmd, env.Logger)
	if err != nil {
		return Outcome{}, err
	}

	for {
		ev, ok := r.Next()
		if !ok {
			env.Logger.Debug("%s child is done", name)
			break
		}
		if ev.Err != nil {
			env.Logger.Error("in %s child: %v", name, ev.Err)
			continue
		}
		if ev.Record.Origin == child.Secondary {
			fmt.Fprint(env.Out, env.Styles.Fatal.Sprint(">"), " ")
		}
		fmt.Fprintln(env.Out, ev.Record.Text)
	}

	st, err := r.Join()
	if err != nil {
		return Outcome{}, err
	}
	code, ok := st.Code()
	if !ok {
		return Outcome{}, fmt.Errorf("%s process %s: %w", name, st, errors.ErrExitCodeUnavailable)
	}
	env.Logger.Verbose("%s exited with code %d", name, code)
	return Exited(code), nil
}

// showCommand prints cmd one argument per line, then its directory.
func showCommand(w io.Writer, cmd child.Command) {
	fmt.Fprintf(w, "> %s", cmd.Program)
	for _, arg := range cmd.Args {
		fmt.Fprintf(w, " \\\n    %s", arg)
	}
	fmt.Fprintln(w)
	if cmd.Dir != "" {
		fmt.Fprintf(w, "| in `%s`\n", cmd.Dir)
	}
	fmt.Fprintln(w)
}
