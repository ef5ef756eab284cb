// Package core is the orchestration layer. It turns an invocation into
// exactly one mode, through a fixed list of phases, and runs it.
//
// Architecture layers (bottom → top):
//
//	child, project, install, testrun  →  core  →  cmd (CLI)
//
// The dispatcher in this package is the single place deciding which
// mode runs; modes never look at the command line themselves.
package core

import (
	"context"
	"fmt"

	"matla/internal/cli"
)

// Mode is one action of matla. The set of modes is closed: only the
// types in this package implement it. A Mode is built for one invocation
// and run once.
type Mode interface {
	Kind() cli.Kind
	Run(ctx context.Context) (Outcome, error)

	sealed()
}

type sealedMode struct{}

func (sealedMode) sealed() {}

// Outcome is what a successful mode reports: either nothing, or the
// exit code of the external tool it delegated to.
type Outcome struct {
	code    int
	hasCode bool
}

// Done is the outcome of a mode with nothing to report.
func Done() Outcome { return Outcome{} }

// Exited is the outcome of a mode whose tool exited with code.
func Exited(code int) Outcome { return Outcome{code: code, hasCode: true} }

// Code returns the tool's exit code, if any.
func (o Outcome) Code() (int, bool) { return o.code, o.hasCode }

func (o Outcome) String() string {
	if !o.hasCode {
		return "done"
	}
	return fmt.Sprintf("exit code %d", o.code)
}
