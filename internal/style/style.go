// Package style holds the painters used for user-facing output.
//
// Styles are plain values handed to whoever prints; nothing here touches
// the global color.NoColor switch.
package style

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Mode selects when output is colored.
type Mode string

const (
	Auto   Mode = "auto"
	Always Mode = "always"
	Never  Mode = "never"
)

// ParseMode accepts auto, always or never. The empty string means auto.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Auto:
		return Auto, nil
	case Always:
		return Always, nil
	case Never:
		return Never, nil
	}
	return "", fmt.Errorf("unknown color mode %q (want auto, always or never)", s)
}

// Styles paints fragments of output.
type Styles struct {
	Fatal *color.Color // markers on stderr lines and fatal errors
	Bad   *color.Color // failed tests
	Good  *color.Color // passed tests
	Ok    *color.Color // neutral emphasis

	enabled bool
}

// New builds Styles for output written to w. In Auto mode color is on
// only when w is a terminal and NO_COLOR is unset.
func New(mode Mode, w io.Writer) Styles {
	return build(enabled(mode, w))
}

// Plain returns Styles that never emit escape sequences.
func Plain() Styles { return build(false) }

// Enabled reports whether these Styles emit color.
func (s Styles) Enabled() bool { return s.enabled }

func build(on bool) Styles {
	s := Styles{
		Fatal:   color.New(color.FgRed, color.Bold),
		Bad:     color.New(color.FgRed),
		Good:    color.New(color.FgGreen),
		Ok:      color.New(color.Bold),
		enabled: on,
	}
	for _, c := range []*color.Color{s.Fatal, s.Bad, s.Good, s.Ok} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func enabled(mode Mode, w io.Writer) bool {
	switch mode {
	case Always:
		return true
	case Never:
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
