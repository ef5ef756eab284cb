package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matla/config"
	"matla/internal/cli"
	"matla/internal/errors"
	"matla/project"
)

// TestInit_Dispatch verifies init writes a manifest and .gitignore.
func TestInit_Dispatch(t *testing.T) {
	w := newWorkspace(t, `exit 0`)
	dir := filepath.Join(t.TempDir(), "fresh")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	res := w.dispatch(t, "init", "-p", dir, "--name", "fresh_spec")

	require.Equal(t, Completed, res.Status, "err: %v", res.Err)
	assert.Equal(t, PreProjectLoad, res.Phase)
	assert.FileExists(t, filepath.Join(dir, project.ManifestName))
	assert.FileExists(t, filepath.Join(dir, ".gitignore"))
	assert.Contains(t, w.out.String(), "created `")

	p, err := project.Load(dir, config.Default())
	require.NoError(t, err)
	assert.Equal(t, "fresh_spec", p.Manifest.Project.Name)
}

// TestInit_ExistingManifest verifies init refuses to overwrite.
func TestInit_ExistingManifest(t *testing.T) {
	w := newWorkspace(t, `exit 0`)

	res := w.dispatch(t, "init", "-p", w.project)

	require.Equal(t, Failed, res.Status)
	assert.Contains(t, res.Err.Error(), "mode init failed")
	assert.Contains(t, res.Err.Error(), "already exists")
}

// TestInit_RejectsArguments verifies init takes no positional argument.
func TestInit_RejectsArguments(t *testing.T) {
	w := newWorkspace(t, `exit 0`)

	res := w.dispatch(t, "init", "somewhere")

	require.Equal(t, Failed, res.Status)
	var me *errors.ModeError
	require.True(t, errors.As(res.Err, &me))
	assert.Equal(t, errors.StageInit, me.Stage)
}

// TestClean_Dispatch verifies clean removes the target directory.
func TestClean_Dispatch(t *testing.T) {
	requireShell(t)
	w := newWorkspace(t, `exit 0`)
	require.Equal(t, Completed, w.dispatch(t, "run", "-p", w.project).Status)
	require.DirExists(t, filepath.Join(w.project, project.TargetDir))

	res := w.dispatch(t, "clean", "-p", w.project)

	require.Equal(t, Completed, res.Status, "err: %v", res.Err)
	assert.Equal(t, PostLoading, res.Phase)
	assert.NoDirExists(t, filepath.Join(w.project, project.TargetDir))
	assert.Contains(t, w.out.String(), "removed `")
}

// TestTest_Dispatch verifies test mode runs the test modules.
func TestTest_Dispatch(t *testing.T) {
	requireShell(t)
	// The fake TLC fails with a violation on the module named Broken.
	w := newWorkspace(t, `for a in "$@"; do case "$a" in Broken.tla) exit 12;; esac; done; exit 0`)
	writeFile(t, filepath.Join(w.project, project.TestsDir, "Holds.tla"), "\\* expect: success\n", 0o644)
	writeFile(t, filepath.Join(w.project, project.TestsDir, "Broken.tla"), "\\* expect: violation\n", 0o644)

	res := w.dispatch(t, "test", "-p", w.project)

	require.Equal(t, Completed, res.Status, "err: %v", res.Err)
	_, hasCode := res.Outcome.Code()
	assert.False(t, hasCode)
	out := w.out.String()
	assert.Contains(t, out, "test Broken ... ok\n")
	assert.Contains(t, out, "test Holds ... ok\n")
	assert.Contains(t, out, "2 passed; 0 failed")
}

// TestTest_Failure verifies failing tests fail the mode.
func TestTest_Failure(t *testing.T) {
	requireShell(t)
	w := newWorkspace(t, `exit 0`)
	writeFile(t, filepath.Join(w.project, project.TestsDir, "Bad.tla"), "\\* expect: deadlock\n", 0o644)
	writeFile(t, filepath.Join(w.project, project.TestsDir, "Other.tla"), "", 0o644)

	res := w.dispatch(t, "test", "-p", w.project, "Bad")

	require.Equal(t, Failed, res.Status)
	assert.Contains(t, res.Err.Error(), "1 of 1 tests failed")
	assert.NotContains(t, w.out.String(), "test Other")
}

// TestSetup_LocalJar verifies setup through the dispatcher.
func TestSetup_LocalJar(t *testing.T) {
	w := newWorkspace(t, `exit 0`)
	require.NoError(t, os.RemoveAll(w.userDir))
	jar := filepath.Join(t.TempDir(), "tla2tools.jar")
	writeFile(t, jar, "PK\x03\x04", 0o644)

	res := w.dispatch(t, "setup", "--tla2tools", jar)

	require.Equal(t, Completed, res.Status, "err: %v", res.Err)
	assert.Equal(t, PreUserLoad, res.Phase)
	cfg, err := config.Load(w.userDir)
	require.NoError(t, err)
	assert.True(t, cfg.Exists)
	assert.Equal(t, filepath.Join(w.userDir, config.JarName), cfg.Toolchain.TLA2Tools)
}

// TestSetup_MissingJar verifies bad --tla2tools paths fail at build time.
func TestSetup_MissingJar(t *testing.T) {
	w := newWorkspace(t, `exit 0`)

	res := w.dispatch(t, "setup", "--tla2tools", filepath.Join(t.TempDir(), "nope.jar"))

	require.Equal(t, Failed, res.Status)
	assert.Contains(t, res.Err.Error(), "setup mode initialization failed")
}

// TestUninstall_Dispatch verifies uninstall needs --yes.
func TestUninstall_Dispatch(t *testing.T) {
	w := newWorkspace(t, `exit 0`)

	res := w.dispatch(t, "uninstall")
	require.Equal(t, Completed, res.Status, "err: %v", res.Err)
	assert.DirExists(t, w.userDir)

	res = w.dispatch(t, "uninstall", "--yes")
	require.Equal(t, Completed, res.Status, "err: %v", res.Err)
	assert.NoDirExists(t, w.userDir)
}

// TestUpdate_NotSetUp verifies update needs a prior setup.
func TestUpdate_NotSetUp(t *testing.T) {
	w := newWorkspace(t, `exit 0`)
	require.NoError(t, os.RemoveAll(w.userDir))

	res := w.dispatch(t, "update")

	require.Equal(t, Failed, res.Status)
	assert.True(t, errors.Is(res.Err, errors.ErrNotSetUp))
}

// TestNonMatchingModesHaveNoEffect verifies dispatching one mode leaves
// the resources of the others untouched.
func TestNonMatchingModesHaveNoEffect(t *testing.T) {
	w := newWorkspace(t, `exit 0`)
	require.NoError(t, os.RemoveAll(w.userDir))

	res := w.dispatch(t, "init", "-p", t.TempDir())

	require.Equal(t, Completed, res.Status, "err: %v", res.Err)
	assert.NoDirExists(t, w.userDir, "setup did not run")
	assert.NoDirExists(t, filepath.Join(w.project, project.TargetDir), "no build happened")
}

// TestModeKinds verifies each variant reports its kind.
func TestModeKinds(t *testing.T) {
	modes := map[cli.Kind]Mode{
		cli.Setup:     &Setup{},
		cli.Uninstall: &Uninstall{},
		cli.Init:      &Init{},
		cli.Update:    &Update{},
		cli.TLC:       &TLC{},
		cli.Apalache:  &Apalache{},
		cli.Run:       &Run{},
		cli.Test:      &Test{},
		cli.Clean:     &Clean{},
	}
	for k, m := range modes {
		assert.Equal(t, k, m.Kind())
	}
	assert.Len(t, modes, len(cli.Kinds()))
}
