package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"matla/util"
)

// Target identifies a project and the build profile to run it in.
type Target struct {
	Path    string // project directory, as given by the user
	Release bool
	Tests   bool // also stage the modules under tests/
}

// NewRun is the target of the tlc, apalache and run modes.
func NewRun(path string, release bool) Target {
	return Target{Path: path, Release: release}
}

// NewTest is the target of the test mode.
func NewTest(path string, release bool) Target {
	return Target{Path: path, Release: release, Tests: true}
}

// Profile is "release" or "debug".
func (t Target) Profile() string {
	if t.Release {
		return "release"
	}
	return "debug"
}

// Runnable is a project staged into its target directory. Commands built
// from it run inside Dir.
type Runnable struct {
	Project *Project
	Target  Target
	Dir     string

	modules map[string]bool
}

// IntoRunnable copies the project's modules and model configurations
// into target/<profile>, plus the test modules for test targets.
func (p *Project) IntoRunnable(t Target) (*Runnable, error) {
	dir := filepath.Join(p.Root, TargetDir, t.Profile())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	r := &Runnable{Project: p, Target: t, Dir: dir, modules: map[string]bool{}}
	if err := r.stage(p.Root); err != nil {
		return nil, err
	}
	if t.Tests {
		if err := r.stage(filepath.Join(p.Root, TestsDir)); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// stage copies the .tla and .cfg files directly in src into r.Dir.
func (r *Runnable) stage(src string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", src, err)
	}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != moduleExt && ext != configExt) {
			continue
		}
		if err := util.CopyFile(filepath.Join(src, e.Name()), filepath.Join(r.Dir, e.Name())); err != nil {
			return fmt.Errorf("staging %s: %w", e.Name(), err)
		}
		if ext == moduleExt {
			r.modules[strings.TrimSuffix(e.Name(), moduleExt)] = true
		}
	}
	return nil
}

// HasModule reports whether module was staged.
func (r *Runnable) HasModule(module string) bool { return r.modules[module] }

func (r *Runnable) hasConfig(module string) bool {
	_, err := os.Stat(filepath.Join(r.Dir, module+configExt))
	return err == nil
}
