package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matla/config"
	"matla/internal/errors"
)

// isolate points the user directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "matla")
	t.Setenv(config.DirEnv, dir)
	for _, k := range []string{"MATLA_JAVA", "MATLA_COLOR", "MATLA_NO_COLOR", "MATLA_VERBOSE", "MATLA_TLC_WORKERS"} {
		t.Setenv(k, "")
	}
	return dir
}

func execute(t *testing.T, args ...string) (int, string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code, err := Execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String(), err
}

// TestExecute_Version verifies --version prints the version.
func TestExecute_Version(t *testing.T) {
	isolate(t)
	code, out, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "matla "+version+"\n", out)
}

// TestExecute_Help verifies --help and bare invocations print usage.
func TestExecute_Help(t *testing.T) {
	isolate(t)
	for _, args := range [][]string{{"--help"}, {}} {
		code, out, _, err := execute(t, args...)
		require.NoError(t, err)
		assert.Equal(t, 0, code)
		assert.Contains(t, out, "Usage:")
		assert.Contains(t, out, "setup")
	}
}

// TestExecute_ModeHelp verifies `<mode> --help` prints the mode's usage.
func TestExecute_ModeHelp(t *testing.T) {
	dir := isolate(t)
	code, out, _, err := execute(t, "init", "--help")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "matla init")
	assert.NoDirExists(t, dir, "help does not run the mode")
}

// TestExecute_UnknownMode verifies parse errors are returned.
func TestExecute_UnknownMode(t *testing.T) {
	isolate(t)
	code, _, _, err := execute(t, "frobnicate")
	require.Error(t, err)
	assert.Equal(t, 1, code)
	assert.Contains(t, err.Error(), "unknown mode")
}

// TestExecute_BadColor verifies an invalid color mode is a config error.
func TestExecute_BadColor(t *testing.T) {
	isolate(t)
	code, _, _, err := execute(t, "--color", "sometimes", "clean")
	require.Error(t, err)
	assert.Equal(t, 1, code)
	var ce *errors.ConfigError
	assert.True(t, errors.As(err, &ce))
}

// TestExecute_Init verifies a full init through Execute.
func TestExecute_Init(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	code, out, _, err := execute(t, "-p", dir, "init", "--name", "demo")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "created `")
	assert.FileExists(t, filepath.Join(dir, "Matla.toml"))
}

// TestExecute_ModeFailure verifies failures exit with 1 and an error.
func TestExecute_ModeFailure(t *testing.T) {
	isolate(t)
	code, _, _, err := execute(t, "-p", t.TempDir(), "clean")
	require.Error(t, err)
	assert.Equal(t, 1, code)
	assert.True(t, errors.Is(err, errors.ErrNotAProject))
	assert.Contains(t, err.Error(), "clean mode initialization failed")
}

// TestExecute_ToolExitCode verifies the tool's exit code is returned.
func TestExecute_ToolExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	userDir := isolate(t)
	base := t.TempDir()
	java := filepath.Join(base, "java")
	require.NoError(t, os.WriteFile(java, []byte("#!/bin/sh\necho checked\nexit 13\n"), 0o755))
	jar := filepath.Join(userDir, config.JarName)
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	require.NoError(t, os.WriteFile(jar, []byte("PK"), 0o644))
	cfg := config.Default()
	cfg.Toolchain.Java = java
	cfg.Toolchain.TLA2Tools = jar
	require.NoError(t, config.Save(userDir, cfg))

	proj := filepath.Join(base, "spec")
	require.NoError(t, os.MkdirAll(proj, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(proj, "Matla.toml"), []byte("[project]\nname = \"spec\"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(proj, "Spec.tla"), []byte("---- MODULE Spec ----\n====\n"), 0o644))

	code, out, _, err := execute(t, "--color", "never", "-p", proj, "run")
	require.NoError(t, err)
	assert.Equal(t, 13, code)
	assert.Equal(t, "checked\n", out)
}

// TestPrintError verifies the category prefix.
func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	PrintError(&buf, errors.ErrExitCodeUnavailable)
	assert.True(t, strings.HasPrefix(buf.String(), "matla: exit code unavailable: "), buf.String())

	buf.Reset()
	PrintError(&buf, errors.New("boom"))
	assert.Equal(t, "matla: error: boom\n", buf.String())
}
