package testrun

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"matla/internal/child"
	"matla/internal/errors"
	"matla/internal/style"
	"matla/project"
	"matla/util"
)

// Builder builds the command checking one module.
type Builder interface {
	BuildCommand(tool project.Tool, module string, tail []string) (child.Command, error)
}

// Case is one test module.
type Case struct {
	Name   string
	Expect Outcome
}

// Discover lists p's test modules whose name contains filter.
func Discover(p *project.Project, filter string) ([]Case, error) {
	names, err := p.Tests()
	if err != nil {
		return nil, err
	}
	var cases []Case
	for _, name := range names {
		if !strings.Contains(name, filter) {
			continue
		}
		o, err := readOutcome(filepath.Join(p.Root, project.TestsDir, name+".tla"))
		if err != nil {
			return nil, fmt.Errorf("test %s: %w", name, err)
		}
		cases = append(cases, Case{Name: name, Expect: o})
	}
	return cases, nil
}

func readOutcome(path string) (Outcome, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ParseOutcome(f)
}

// Result is the outcome of one case.
type Result struct {
	Case
	Code    int
	HasCode bool
	Passed  bool
	Output  []child.Record
}

func (r Result) reason() string {
	if !r.HasCode {
		return errors.ErrExitCodeUnavailable.Error()
	}
	return fmt.Sprintf("expected %s, got %s", r.Expect, Describe(r.Code))
}

// Summary collects every Result of a run.
type Summary struct {
	Results []Result
}

// Passed counts passing cases.
func (s Summary) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Passed {
			n++
		}
	}
	return n
}

// Failed counts failing cases.
func (s Summary) Failed() int { return len(s.Results) - s.Passed() }

// Runner runs cases and reports on Out.
type Runner struct {
	Out    io.Writer
	Styles style.Styles
	Logger *util.Logger
}

// Run checks every case in order, one child process at a time. It
// returns an error when a case fails or a child cannot be spawned.
func (r *Runner) Run(ctx context.Context, b Builder, cases []Case, tail []string) (Summary, error) {
	var sum Summary
	if len(cases) == 0 {
		r.Logger.Info("no test module found")
	}
	fmt.Fprintf(r.Out, "running %d test(s)\n", len(cases))

	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		fmt.Fprintf(r.Out, "test %s ... ", c.Name)
		res, err := r.runOne(b, c, tail)
		if err != nil {
			fmt.Fprintln(r.Out, r.Styles.Bad.Sprint("error"))
			return sum, fmt.Errorf("test %s: %w", c.Name, err)
		}
		sum.Results = append(sum.Results, res)
		if res.Passed {
			fmt.Fprintln(r.Out, r.Styles.Good.Sprint("ok"))
		} else {
			fmt.Fprintf(r.Out, "%s (%s)\n", r.Styles.Bad.Sprint("FAILED"), res.reason())
		}
	}

	r.report(sum)
	if n := sum.Failed(); n > 0 {
		return sum, fmt.Errorf("%d of %d tests failed", n, len(sum.Results))
	}
	return sum, nil
}

func (r *Runner) runOne(b Builder, c Case, tail []string) (Result, error) {
	res := Result{Case: c}
	cmd, err := b.BuildCommand(project.TLC, c.Name, tail)
	if err != nil {
		return res, err
	}
	run, err := child.Spawn(cmd, r.Logger)
	if err != nil {
		return res, err
	}
	for {
		ev, ok := run.Next()
		if !ok {
			break
		}
		if ev.Err != nil {
			r.Logger.Error("in test %s: %v", c.Name, ev.Err)
			continue
		}
		res.Output = append(res.Output, ev.Record)
	}
	st, err := run.Join()
	if err != nil {
		return res, err
	}
	res.Code, res.HasCode = st.Code()
	res.Passed = res.HasCode && c.Expect.Matches(res.Code)
	return res, nil
}

func (r *Runner) report(sum Summary) {
	failed := sum.Failed()
	if failed > 0 {
		fmt.Fprintf(r.Out, "\nfailures:\n")
		for _, res := range sum.Results {
			if res.Passed {
				continue
			}
			fmt.Fprintf(r.Out, "\n---- %s output ----\n", res.Name)
			for _, rec := range res.Output {
				if rec.Origin == child.Secondary {
					fmt.Fprint(r.Out, r.Styles.Fatal.Sprint(">"), " ")
				}
				fmt.Fprintln(r.Out, rec.Text)
			}
		}
	}

	verdict := r.Styles.Good.Sprint("ok")
	if failed > 0 {
		verdict = r.Styles.Bad.Sprint("FAILED")
	}
	fmt.Fprintf(r.Out, "\ntest result: %s. %d passed; %d failed\n", verdict, sum.Passed(), failed)
}
