package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"matla/internal/child"
	"matla/internal/errors"
)

// Tool is an external checker matla delegates to.
type Tool int

const (
	TLC Tool = iota
	Apalache
)

func (t Tool) String() string {
	if t == Apalache {
		return "Apalache"
	}
	return "TLC"
}

// BuildCommand returns the command running tool on module inside the
// target directory. An empty module resolves to the project entry. tail
// goes verbatim after the generated options, before the module file.
func (r *Runnable) BuildCommand(tool Tool, module string, tail []string) (child.Command, error) {
	mod, err := r.resolve(module)
	if err != nil {
		return child.Command{}, err
	}

	var cmd child.Command
	switch tool {
	case TLC:
		cmd, err = r.tlc(mod)
	case Apalache:
		cmd = r.apalache(mod)
	default:
		return child.Command{}, fmt.Errorf("unknown tool %d", int(tool))
	}
	if err != nil {
		return child.Command{}, err
	}
	cmd.Args = append(cmd.Args, tail...)
	cmd.Args = append(cmd.Args, mod+moduleExt)
	cmd.Dir = r.Dir
	return cmd, nil
}

func (r *Runnable) resolve(module string) (string, error) {
	module = strings.TrimSuffix(module, moduleExt)
	if module != "" {
		if !r.HasModule(module) {
			return "", fmt.Errorf("unknown module `%s`", module)
		}
		return module, nil
	}
	return r.Project.Entry("")
}

func (r *Runnable) tlc(mod string) (child.Command, error) {
	cfg := r.Project.cfg
	jar := cfg.Toolchain.TLA2Tools
	if jar == "" {
		return child.Command{}, fmt.Errorf("no tla2tools.jar configured: %w", errors.ErrNotSetUp)
	}
	if _, err := os.Stat(jar); err != nil {
		return child.Command{}, fmt.Errorf("tla2tools.jar not found at %s (run `matla update`): %w", jar, err)
	}

	section := r.Project.Manifest.TLC
	workers := "auto"
	switch {
	case section.Workers > 0:
		workers = strconv.Itoa(section.Workers)
	case cfg.TLC.Workers > 0:
		workers = strconv.Itoa(cfg.TLC.Workers)
	}

	args := append([]string(nil), cfg.Toolchain.JavaOpts...)
	args = append(args,
		"-cp", jar, "tlc2.TLC",
		"-workers", workers,
		"-metadir", filepath.Join(r.Dir, "states", mod),
	)
	if !section.DeadlockChecked() {
		// TLC's -deadlock turns deadlock checking off.
		args = append(args, "-deadlock")
	}
	if section.Seed != 0 {
		args = append(args, "-seed", strconv.FormatInt(section.Seed, 10))
	}
	if r.hasConfig(mod) {
		args = append(args, "-config", mod+configExt)
	}
	args = append(args, section.Args...)

	return child.Command{Program: cfg.Toolchain.Java, Args: args}, nil
}

func (r *Runnable) apalache(mod string) child.Command {
	args := []string{"check", "--out-dir=" + filepath.Join(r.Dir, "apalache")}
	if r.hasConfig(mod) {
		args = append(args, "--config="+mod+configExt)
	}
	args = append(args, r.Project.Manifest.Apalache.Args...)
	return child.Command{Program: r.Project.cfg.Toolchain.Apalache, Args: args}
}
