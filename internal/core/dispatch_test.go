package core

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matla/internal/cli"
	"matla/internal/errors"
	"matla/internal/style"
	"matla/util"
)

// fakeMode records whether it ran and returns a canned result.
type fakeMode struct {
	sealedMode
	kind cli.Kind
	out  Outcome
	err  error
	ran  *[]cli.Kind
}

func (m *fakeMode) Kind() cli.Kind { return m.kind }

func (m *fakeMode) Run(context.Context) (Outcome, error) {
	*m.ran = append(*m.ran, m.kind)
	return m.out, m.err
}

// recorder tracks builder and prepare calls across a dispatch.
type recorder struct {
	built    []cli.Kind
	ran      []cli.Kind
	prepared []string
}

func (r *recorder) candidate(k cli.Kind, out Outcome, buildErr, runErr error) Candidate {
	return Candidate{Kind: k, Build: func(cli.Options, *Env) (Mode, error) {
		r.built = append(r.built, k)
		if buildErr != nil {
			return nil, buildErr
		}
		return &fakeMode{kind: k, out: out, err: runErr, ran: &r.ran}, nil
	}}
}

func (r *recorder) prepare(name string, err error) func(context.Context, cli.Options) error {
	return func(context.Context, cli.Options) error {
		r.prepared = append(r.prepared, name)
		return err
	}
}

func testEnv() *Env {
	return NewEnv(&bytes.Buffer{}, util.Discard(), style.Plain(), "")
}

func parse(t *testing.T, args ...string) *cli.Invocation {
	t.Helper()
	inv, err := cli.Parse(args)
	require.NoError(t, err)
	return inv
}

// threePhases mirrors the default layout with recording candidates.
func threePhases(r *recorder, code int) []Phase {
	return []Phase{
		{Name: PreUserLoad, Prepare: r.prepare(PreUserLoad, nil), Candidates: []Candidate{
			r.candidate(cli.Setup, Done(), nil, nil),
			r.candidate(cli.Uninstall, Done(), nil, nil),
		}},
		{Name: PreProjectLoad, Prepare: r.prepare(PreProjectLoad, nil), Candidates: []Candidate{
			r.candidate(cli.Init, Done(), nil, nil),
			r.candidate(cli.TLC, Exited(code), nil, nil),
			r.candidate(cli.Apalache, Exited(code), nil, nil),
		}},
		{Name: PostLoading, Prepare: r.prepare(PostLoading, nil), Candidates: []Candidate{
			r.candidate(cli.Run, Exited(code), nil, nil),
			r.candidate(cli.Clean, Done(), nil, nil),
		}},
	}
}

// TestDispatch_FirstMatchWins verifies only the matching mode is built,
// only its phase is prepared, and later phases are never evaluated.
func TestDispatch_FirstMatchWins(t *testing.T) {
	r := &recorder{}
	d := &Dispatcher{Env: testEnv(), Phases: threePhases(r, 0)}

	res := d.Dispatch(context.Background(), parse(t, "tlc"))

	assert.Equal(t, Completed, res.Status)
	assert.Equal(t, PreProjectLoad, res.Phase)
	assert.Equal(t, cli.TLC, res.Kind)
	assert.Equal(t, []cli.Kind{cli.TLC}, r.built)
	assert.Equal(t, []cli.Kind{cli.TLC}, r.ran)
	assert.Equal(t, []string{PreProjectLoad}, r.prepared)
}

// TestDispatch_NoMatch verifies nothing runs when no mode is selected.
func TestDispatch_NoMatch(t *testing.T) {
	r := &recorder{}
	d := &Dispatcher{Env: testEnv(), Phases: threePhases(r, 0)}
	inv := parse(t)

	for _, res := range []PhaseResult{
		d.TryPreUserLoad(context.Background(), inv),
		d.TryPreProjectLoad(context.Background(), inv),
		d.TryPostLoading(context.Background(), inv),
		d.Dispatch(context.Background(), inv),
	} {
		assert.Equal(t, NoMatch, res.Status)
		assert.NoError(t, res.Err)
	}
	assert.Empty(t, r.built)
	assert.Empty(t, r.prepared)
}

// TestDispatch_NamedPhases verifies each entry point only sees its phase.
func TestDispatch_NamedPhases(t *testing.T) {
	r := &recorder{}
	d := &Dispatcher{Env: testEnv(), Phases: threePhases(r, 0)}
	inv := parse(t, "clean")

	assert.Equal(t, NoMatch, d.TryPreUserLoad(context.Background(), inv).Status)
	assert.Equal(t, NoMatch, d.TryPreProjectLoad(context.Background(), inv).Status)
	res := d.TryPostLoading(context.Background(), inv)
	assert.Equal(t, Completed, res.Status)
	assert.Equal(t, []cli.Kind{cli.Clean}, r.ran)

	_, hasCode := res.Outcome.Code()
	assert.False(t, hasCode, "clean completes without a code")
	assert.Equal(t, 0, res.ExitCode())
}

// TestDispatch_ExitCode verifies the tool's exit code is carried through.
func TestDispatch_ExitCode(t *testing.T) {
	for _, code := range []int{0, 1, 12, 255} {
		t.Run(fmt.Sprint(code), func(t *testing.T) {
			d := &Dispatcher{Env: testEnv(), Phases: threePhases(&recorder{}, code)}
			res := d.Dispatch(context.Background(), parse(t, "run"))

			require.Equal(t, Completed, res.Status)
			got, ok := res.Outcome.Code()
			assert.True(t, ok)
			assert.Equal(t, code, got)
			assert.Equal(t, code, res.ExitCode())
		})
	}
}

// TestDispatch_InitFailure verifies builder errors are attributed to
// initialization and the mode never runs.
func TestDispatch_InitFailure(t *testing.T) {
	r := &recorder{}
	d := &Dispatcher{Env: testEnv(), Phases: []Phase{{
		Name:       PreProjectLoad,
		Candidates: []Candidate{r.candidate(cli.TLC, Done(), fmt.Errorf("bad option"), nil)},
	}}}

	res := d.Dispatch(context.Background(), parse(t, "tlc"))

	require.Equal(t, Failed, res.Status)
	assert.EqualError(t, res.Err, "tlc mode initialization failed: bad option")
	var me *errors.ModeError
	require.True(t, errors.As(res.Err, &me))
	assert.Equal(t, errors.StageInit, me.Stage)
	assert.Empty(t, r.ran)
}

// TestDispatch_RunFailure verifies run errors are attributed to the run.
func TestDispatch_RunFailure(t *testing.T) {
	r := &recorder{}
	d := &Dispatcher{Env: testEnv(), Phases: []Phase{{
		Name:       PostLoading,
		Candidates: []Candidate{r.candidate(cli.Run, Done(), nil, errors.ErrExitCodeUnavailable)},
	}}}

	res := d.Dispatch(context.Background(), parse(t, "run"))

	require.Equal(t, Failed, res.Status)
	assert.EqualError(t, res.Err, "mode run failed: "+errors.ErrExitCodeUnavailable.Error())
	assert.True(t, errors.Is(res.Err, errors.ErrExitCodeUnavailable))
	assert.Equal(t, "exit code unavailable", errors.Classify(res.Err))
}

// TestDispatch_PrepareFailure verifies a failing preparation stops the
// phase before the mode is built and is attributed to the mode.
func TestDispatch_PrepareFailure(t *testing.T) {
	r := &recorder{}
	d := &Dispatcher{Env: testEnv(), Phases: []Phase{
		{Name: PostLoading, Prepare: r.prepare(PostLoading, fmt.Errorf("no manifest")), Candidates: []Candidate{
			r.candidate(cli.Clean, Done(), nil, nil),
		}},
	}}

	res := d.Dispatch(context.Background(), parse(t, "clean"))

	require.Equal(t, Failed, res.Status)
	assert.Equal(t, PostLoading, res.Phase)
	assert.EqualError(t, res.Err, "clean mode initialization failed: no manifest")
	var me *errors.ModeError
	require.True(t, errors.As(res.Err, &me))
	assert.Equal(t, "clean", me.Mode)
	assert.Equal(t, errors.StageInit, me.Stage)
	assert.Empty(t, r.built)
}

// TestDefaultPhases verifies the phase layout and candidate order.
func TestDefaultPhases(t *testing.T) {
	got := map[string][]cli.Kind{}
	var order []string
	for _, p := range DefaultPhases(testEnv()) {
		order = append(order, p.Name)
		for _, c := range p.Candidates {
			got[p.Name] = append(got[p.Name], c.Kind)
		}
	}
	want := map[string][]cli.Kind{
		PreUserLoad:    {cli.Setup, cli.Uninstall},
		PreProjectLoad: {cli.Init, cli.Update, cli.TLC, cli.Apalache},
		PostLoading:    {cli.Run, cli.Test, cli.Clean},
	}
	assert.Equal(t, []string{PreUserLoad, PreProjectLoad, PostLoading}, order)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("phases mismatch (-want +got):\n%s", diff)
	}
}

// TestDefaultPhases_EveryKindOnce verifies each mode has one candidate.
func TestDefaultPhases_EveryKindOnce(t *testing.T) {
	seen := map[cli.Kind]int{}
	for _, p := range DefaultPhases(testEnv()) {
		for _, c := range p.Candidates {
			seen[c.Kind]++
		}
	}
	for _, k := range cli.Kinds() {
		assert.Equal(t, 1, seen[k], "mode %s", k)
	}
}

// TestOutcome verifies Done and Exited.
func TestOutcome(t *testing.T) {
	_, ok := Done().Code()
	assert.False(t, ok)
	assert.Equal(t, "done", Done().String())

	code, ok := Exited(11).Code()
	assert.True(t, ok)
	assert.Equal(t, 11, code)
	assert.Equal(t, "exit code 11", Exited(11).String())
}

// TestStatus_String verifies status names.
func TestStatus_String(t *testing.T) {
	assert.Equal(t, "no match", NoMatch.String())
	assert.Equal(t, "completed", Completed.String())
	assert.Equal(t, "failed", Failed.String())
}
