// Package errors provides domain-specific error types for matla.
//
// These types carry structured context (mode, stage, program, stream
// origin) so that the driver can print a short classification in front
// of the causal chain, and so callers can tell a failed spawn from a
// failed join without string matching.
package errors

import (
	"errors"
	"fmt"
	"net"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrExitCodeUnavailable means the child terminated without an exit
	// code, typically because a signal killed it.
	ErrExitCodeUnavailable = errors.New("failed to retrieve exit code of child process")
	// ErrJoined is returned when a runner is joined a second time.
	ErrJoined = errors.New("child process already joined")
	// ErrNotSetUp is returned when the user configuration is missing.
	ErrNotSetUp = errors.New("matla is not set up, run `matla setup`")
	// ErrNotAProject is returned when no Matla.toml manifest is found.
	ErrNotAProject = errors.New("not a matla project (no Matla.toml)")
)

// ── Mode errors ──────────────────────────────────────────────────────

// Stage tells which step of a mode's lifecycle failed.
type Stage int

const (
	StageInit Stage = iota // constructing the mode from the invocation
	StageRun               // running the constructed mode
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "initialization"
	case StageRun:
		return "run"
	default:
		return "unknown"
	}
}

// ModeError attributes a failure to one mode and one stage.
type ModeError struct {
	Mode  string
	Stage Stage
	Err   error
}

func (e *ModeError) Error() string {
	if e.Stage == StageInit {
		return fmt.Sprintf("%s mode initialization failed: %v", e.Mode, e.Err)
	}
	return fmt.Sprintf("mode %s failed: %v", e.Mode, e.Err)
}

func (e *ModeError) Unwrap() error { return e.Err }

// ── Child process errors ─────────────────────────────────────────────

// SpawnError means the external command could not be started.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn `%s`: %v", e.Program, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// JoinError means the child or one of its stream readers could not be
// joined. It is never a plain non-zero exit.
type JoinError struct {
	Program string
	Err     error
}

func (e *JoinError) Error() string {
	if e.Program == "" {
		return fmt.Sprintf("failed to join child process: %v", e.Err)
	}
	return fmt.Sprintf("failed to join `%s` process: %v", e.Program, e.Err)
}

func (e *JoinError) Unwrap() error { return e.Err }

// DecodeError reports one output line that is not valid text. It is
// delivered out of band and never stops the stream.
type DecodeError struct {
	Origin string // "stdout" or "stderr"
	Line   int    // 1-based line number within its stream
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Origin, e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ── Configuration errors ─────────────────────────────────────────────

// ConfigError represents an invalid configuration or flag value.
type ConfigError struct {
	Field   string      // config key or flag name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: %s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Network errors ───────────────────────────────────────────────────

// NetworkError represents a failure while fetching a toolchain artifact.
type NetworkError struct {
	Op        string // "download", "status"
	Addr      string // URL involved
	Err       error
	Retryable bool
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Wrap creates a NetworkError, detecting retryability from err.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Classification ───────────────────────────────────────────────────

// Classify returns the short prefix the driver prints before err.
// The outermost recognised type wins, except that the child-process
// failures are reported even when wrapped in a run failure.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var (
		se *SpawnError
		je *JoinError
		ce *ConfigError
		me *ModeError
	)
	switch {
	case errors.As(err, &se):
		return "spawn failure"
	case errors.As(err, &je):
		return "join failure"
	case errors.Is(err, ErrExitCodeUnavailable):
		return "exit code unavailable"
	case errors.As(err, &ce):
		return "configuration error"
	case errors.As(err, &me):
		return me.Stage.String() + " failure"
	default:
		return "error"
	}
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
