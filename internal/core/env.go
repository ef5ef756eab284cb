package core

import (
	"io"

	"matla/config"
	"matla/internal/install"
	"matla/internal/style"
	"matla/project"
	"matla/util"
)

// Env carries what modes need from the outside world. It is filled
// progressively: the user configuration and the project are loaded by
// the phases that need them, never before.
type Env struct {
	Out    io.Writer
	Logger *util.Logger
	Styles style.Styles

	// UserDir is where the user configuration lives.
	UserDir string
	// ColorFixed is set when the command line chose the color mode; the
	// user configuration then leaves Styles alone.
	ColorFixed bool

	// Config is nil until LoadConfig succeeds.
	Config *config.Config

	// Installer creates the installer used by setup, uninstall and
	// update. NewEnv sets it.
	Installer func() *install.Installer

	projects map[string]*project.Project
}

// NewEnv returns an Env writing to out.
func NewEnv(out io.Writer, logger *util.Logger, styles style.Styles, userDir string) *Env {
	e := &Env{
		Out:      out,
		Logger:   logger,
		Styles:   styles,
		UserDir:  userDir,
		projects: map[string]*project.Project{},
	}
	e.Installer = func() *install.Installer {
		return install.New(e.UserDir, e.Logger.Named("install"), e.Out)
	}
	return e
}

// LoadConfig loads the user configuration once.
func (e *Env) LoadConfig() error {
	if e.Config != nil {
		return nil
	}
	e.Logger.Verbose("loading user configuration from `%s`", e.UserDir)
	cfg, err := config.Load(e.UserDir)
	if err != nil {
		return err
	}
	if !cfg.Exists {
		e.Logger.Warn("no user configuration in `%s`, run `matla setup`", e.UserDir)
	}
	e.Config = cfg

	if !e.ColorFixed {
		if mode, err := style.ParseMode(cfg.Display.Color); err == nil {
			e.Styles = style.New(mode, e.Out)
		}
	}
	return nil
}

// LoadProject loads the project at path, loading the user configuration
// first if needed. Projects are cached by path.
func (e *Env) LoadProject(path string) (*project.Project, error) {
	if p, ok := e.projects[path]; ok {
		return p, nil
	}
	if err := e.LoadConfig(); err != nil {
		return nil, err
	}
	e.Logger.Info("loading project from `%s`", path)
	p, err := project.Load(path, e.Config)
	if err != nil {
		return nil, err
	}
	if e.projects == nil {
		e.projects = map[string]*project.Project{}
	}
	e.projects[path] = p
	return p, nil
}
