// Package project loads a matla project: a directory holding TLA+
// modules and a Matla.toml manifest. Projects are turned into runnable
// build targets under target/, from which TLC and Apalache commands are
// built.
package project

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"matla/config"
	"matla/internal/errors"
	"matla/util"
)

const (
	// ManifestName is the project manifest file.
	ManifestName = "Matla.toml"
	// TargetDir receives build targets.
	TargetDir = "target"
	// TestsDir holds test modules.
	TestsDir = "tests"

	moduleExt = ".tla"
	configExt = ".cfg"
)

// Manifest is the content of Matla.toml.
type Manifest struct {
	Project  ProjectSection  `toml:"project"`
	TLC      TLCSection      `toml:"tlc"`
	Apalache ApalacheSection `toml:"apalache"`
}

type ProjectSection struct {
	Name  string `toml:"name"`
	Entry string `toml:"entry,omitempty"`
}

// TLCSection overrides user-wide TLC settings for this project.
type TLCSection struct {
	Workers       int      `toml:"workers,omitempty"`
	CheckDeadlock *bool    `toml:"check_deadlock,omitempty"`
	Seed          int64    `toml:"seed,omitempty"`
	Args          []string `toml:"args,omitempty"`
}

// DeadlockChecked reports whether TLC should look for deadlocks. It
// defaults to true.
func (s TLCSection) DeadlockChecked() bool {
	return s.CheckDeadlock == nil || *s.CheckDeadlock
}

type ApalacheSection struct {
	Args []string `toml:"args,omitempty"`
}

// DefaultManifest is what init writes.
func DefaultManifest(name string) Manifest {
	check := true
	return Manifest{
		Project: ProjectSection{Name: name},
		TLC:     TLCSection{CheckDeadlock: &check},
	}
}

// Project is a loaded project.
type Project struct {
	Root     string // absolute project directory
	Manifest Manifest
	Modules  []string // top-level module names, sorted, without extension

	cfg *config.Config
}

// Load reads the project at path. cfg supplies the toolchain and
// user-wide defaults; it must not be nil.
func Load(path string, cfg *config.Config) (*Project, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	manifestPath := filepath.Join(root, ManifestName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", root, errors.ErrNotAProject)
		}
		return nil, fmt.Errorf("reading %s: %w", ManifestName, err)
	}

	m, err := parseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", manifestPath, err)
	}

	modules, err := listModules(root)
	if err != nil {
		return nil, err
	}

	return &Project{Root: root, Manifest: m, Modules: modules, cfg: cfg}, nil
}

func parseManifest(data []byte) (Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		var (
			de *toml.DecodeError
			se *toml.StrictMissingError
		)
		switch {
		case errors.As(err, &de):
			return Manifest{}, fmt.Errorf("%w\n%s", err, de.String())
		case errors.As(err, &se):
			return Manifest{}, fmt.Errorf("%w\n%s", err, se.String())
		}
		return Manifest{}, err
	}

	if m.Project.Name == "" {
		return Manifest{}, &errors.ConfigError{
			Field:   "project.name",
			Message: "must not be empty",
			Hint:    "add name = \"...\" under [project]",
		}
	}
	if m.TLC.Workers < 0 {
		return Manifest{}, &errors.ConfigError{
			Field:   "tlc.workers",
			Value:   m.TLC.Workers,
			Message: "must not be negative",
		}
	}
	return m, nil
}

// listModules returns the names of the .tla files directly in dir.
func listModules(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != moduleExt {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), moduleExt))
	}
	sort.Strings(out)
	return out, nil
}

// Tests returns the names of the test modules under tests/.
func (p *Project) Tests() ([]string, error) {
	return listModules(filepath.Join(p.Root, TestsDir))
}

// Config returns the user configuration the project was loaded with.
func (p *Project) Config() *config.Config { return p.cfg }

// Entry resolves the module to run: override if given, else the
// manifest's entry, else the only top-level module.
func (p *Project) Entry(override string) (string, error) {
	name := strings.TrimSuffix(override, moduleExt)
	if name == "" {
		name = strings.TrimSuffix(p.Manifest.Project.Entry, moduleExt)
	}
	if name != "" {
		if !contains(p.Modules, name) {
			return "", fmt.Errorf("unknown module `%s` in %s", name, p.Root)
		}
		return name, nil
	}

	switch len(p.Modules) {
	case 0:
		return "", fmt.Errorf("no .tla module in %s", p.Root)
	case 1:
		return p.Modules[0], nil
	default:
		return "", fmt.Errorf("several modules in %s (%s), pick one or set [project] entry",
			p.Root, strings.Join(p.Modules, ", "))
	}
}

// Clean removes the target directory. It reports whether there was one.
func (p *Project) Clean() (bool, error) {
	dir := filepath.Join(p.Root, TargetDir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("removing %s: %w", dir, err)
	}
	return true, nil
}

// Init creates a manifest in dir. name defaults to the directory's base
// name. Unless gitignore is false, /target/ is appended to .gitignore.
func Init(dir, name string, gitignore bool) (string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	manifestPath := filepath.Join(root, ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return "", fmt.Errorf("%s already exists", manifestPath)
	}
	if name == "" {
		name = filepath.Base(root)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", root, err)
	}
	data, err := toml.Marshal(DefaultManifest(name))
	if err != nil {
		return "", fmt.Errorf("encoding manifest: %w", err)
	}
	if err := util.WriteFileAtomic(manifestPath, data, 0o644); err != nil {
		return "", err
	}

	if gitignore {
		if err := ignoreTarget(root); err != nil {
			return "", err
		}
	}
	return manifestPath, nil
}

const ignoreLine = "/" + TargetDir + "/"

func ignoreTarget(root string) error {
	path := filepath.Join(root, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading .gitignore: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == ignoreLine {
			return nil
		}
	}
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	data = append(data, ignoreLine+"\n"...)
	return util.WriteFileAtomic(path, data, 0o644)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
