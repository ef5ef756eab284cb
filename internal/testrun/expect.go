// Package testrun runs a project's test modules with TLC, one after the
// other, and checks each outcome against the expectation the module
// declares.
package testrun

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Outcome is what a test module expects TLC to conclude.
type Outcome string

const (
	Success    Outcome = "success"
	Assumption Outcome = "assumption"
	Deadlock   Outcome = "deadlock"
	Violation  Outcome = "violation"
	Liveness   Outcome = "liveness"
	Failure    Outcome = "error" // any other non-zero exit
)

// TLC exit codes per outcome.
var exitCodes = map[Outcome]int{
	Success:    0,
	Assumption: 10,
	Deadlock:   11,
	Violation:  12,
	Liveness:   13,
}

// expectRe matches `\* expect: <outcome>` comment lines.
var expectRe = regexp.MustCompile(`^\s*\\\*\s*expect\s*:\s*([A-Za-z]+)\s*$`)

// ParseOutcome reads the first expectation line of a module. Modules
// without one expect Success.
func ParseOutcome(r io.Reader) (Outcome, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m := expectRe.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		o := Outcome(strings.ToLower(m[1]))
		if _, ok := exitCodes[o]; !ok && o != Failure {
			return "", fmt.Errorf("unknown expected outcome %q", m[1])
		}
		return o, nil
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	return Success, nil
}

// Matches reports whether TLC exiting with code satisfies o.
func (o Outcome) Matches(code int) bool {
	if o == Failure {
		if code == 0 {
			return false
		}
		for _, c := range exitCodes {
			if c == code {
				return false
			}
		}
		return true
	}
	want, ok := exitCodes[o]
	return ok && want == code
}

// Describe names the outcome an exit code stands for.
func Describe(code int) string {
	for o, c := range exitCodes {
		if c == code {
			return string(o)
		}
	}
	return fmt.Sprintf("error (exit code %d)", code)
}
