package child

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"matla/internal/errors"
	"matla/internal/metrics"
	"matla/util"
)

// Command describes an external command before it is spawned.
type Command struct {
	Program string
	Args    []string
	Dir     string   // working directory, empty for the current one
	Env     []string // extra KEY=VALUE pairs on top of os.Environ
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + strings.Join(c.Args, " ")
}

// Runner owns one spawned child process and the Mux reading its output.
// It is single use: once [Runner.Join] returns, the process resources
// are released.
type Runner struct {
	cmd    *exec.Cmd
	mux    *Mux
	pipes  []io.Closer
	stats  *metrics.Collector
	logger *util.Logger
	joined bool
}

// Spawn starts c with both output streams captured. Stdin is inherited.
func Spawn(c Command, logger *util.Logger) (*Runner, error) {
	if logger == nil {
		logger = util.Discard()
	}
	logger = logger.Named("child")

	cmd := exec.Command(c.Program, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = os.Stdin
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &errors.SpawnError{Program: c.Program, Err: fmt.Errorf("stdout pipe: %w", err)}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &errors.SpawnError{Program: c.Program, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	logger.Verbose("spawning %s", c)
	if err := cmd.Start(); err != nil {
		return nil, &errors.SpawnError{Program: c.Program, Err: err}
	}
	logger.Debug("started pid %d", cmd.Process.Pid)

	stats := metrics.New()
	return &Runner{
		cmd:    cmd,
		mux:    NewMux(stdout, stderr, WithStats(stats), WithLogger(logger)),
		pipes:  []io.Closer{stdout, stderr},
		stats:  stats,
		logger: logger,
	}, nil
}

// Next returns the next output event; false means the output is over.
func (r *Runner) Next() (Event, bool) {
	return r.mux.Next()
}

// Stats exposes the output statistics of this child.
func (r *Runner) Stats() *metrics.Collector { return r.stats }

// Join waits for both stream readers and then for the process, and
// returns its status. Unconsumed events are discarded. A non-zero exit
// is not an error; a panicking reader or a failed wait is a
// *errors.JoinError.
func (r *Runner) Join() (Status, error) {
	if r.joined {
		return Status{}, errors.ErrJoined
	}
	r.joined = true
	program := r.cmd.Path

	if n := r.mux.drain(); n > 0 {
		r.logger.Debug("discarded %d unread events", n)
	}

	// Readers must be done before Wait closes the pipes under them.
	muxErr := r.mux.Wait()
	if muxErr != nil {
		for _, p := range r.pipes {
			p.Close()
		}
	}
	waitErr := r.cmd.Wait()

	r.stats.Finish()
	r.logger.Debug("stream stats %s", r.stats.JSON())

	status := statusOf(r.cmd.ProcessState)
	if muxErr != nil {
		var je *errors.JoinError
		if errors.As(muxErr, &je) {
			je.Program = program
		}
		return status, muxErr
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return status, &errors.JoinError{Program: program, Err: waitErr}
		}
	}
	r.logger.Verbose("%s: %s", program, status)
	return status, nil
}
