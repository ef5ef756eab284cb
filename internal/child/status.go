package child

import (
	"fmt"
	"os"
)

// Status is the final state of a joined child process.
type Status struct {
	code int // -1 when the child did not exit on its own
	desc string
}

func statusOf(ps *os.ProcessState) Status {
	if ps == nil {
		return Status{code: -1, desc: "unknown"}
	}
	return Status{code: ps.ExitCode(), desc: ps.String()}
}

// Code returns the exit code, or false when there is none, for
// instance because a signal terminated the child.
func (s Status) Code() (int, bool) {
	return s.code, s.code >= 0
}

// Success reports whether the child exited with code 0.
func (s Status) Success() bool { return s.code == 0 }

func (s Status) String() string {
	if s.desc != "" {
		return s.desc
	}
	return fmt.Sprintf("exit status %d", s.code)
}
