// Package config defines matla's user configuration: where the TLA+
// toolchain lives and how output looks. It is stored as TOML in the user
// directory and overlaid with MATLA_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"matla/internal/errors"
	"matla/util"
)

// Config holds the user configuration.
type Config struct {
	Toolchain Toolchain `mapstructure:"toolchain" toml:"toolchain"`
	TLC       TLC       `mapstructure:"tlc" toml:"tlc"`
	Display   Display   `mapstructure:"display" toml:"display"`

	// ── Not persisted ────────────────────────────────────────────────
	Dir     string `mapstructure:"-" toml:"-"` // user directory it was loaded from
	Exists  bool   `mapstructure:"-" toml:"-"` // whether the file was found
	Verbose int    `mapstructure:"-" toml:"-"` // MATLA_VERBOSE
}

// Toolchain locates the external tools.
type Toolchain struct {
	Java      string   `mapstructure:"java" toml:"java"`
	JavaOpts  []string `mapstructure:"java_opts" toml:"java_opts"`
	TLA2Tools string   `mapstructure:"tla2tools" toml:"tla2tools"`
	Apalache  string   `mapstructure:"apalache" toml:"apalache"`
}

// TLC holds user-wide TLC defaults. Workers 0 means "auto".
type TLC struct {
	Workers int `mapstructure:"workers" toml:"workers"`
}

// Display controls presentation.
type Display struct {
	Color string `mapstructure:"color" toml:"color"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Toolchain: Toolchain{
			Java:     DefaultJava,
			JavaOpts: append([]string(nil), DefaultJavaOpts...),
			Apalache: DefaultApalache,
		},
		Display: Display{Color: DefaultColor},
	}
}

// UserDir returns $MATLA_HOME, or the matla directory under the
// platform's user configuration directory.
func UserDir() (string, error) {
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user directory (set %s): %w", DirEnv, err)
	}
	return filepath.Join(base, DirName), nil
}

// Path returns the configuration file inside dir.
func Path(dir string) string { return filepath.Join(dir, FileName) }

// Load reads dir's configuration file over the defaults, then applies
// the environment overlay and validates the result. A missing file is
// not an error; Exists reports whether one was found.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	path := Path(dir)
	exists := false
	switch _, err := os.Stat(path); {
	case err == nil:
		exists = true
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Dir = dir
	cfg.Exists = exists

	LoadFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("toolchain.java", DefaultJava)
	v.SetDefault("toolchain.java_opts", DefaultJavaOpts)
	v.SetDefault("toolchain.tla2tools", "")
	v.SetDefault("toolchain.apalache", DefaultApalache)
	v.SetDefault("tlc.workers", 0)
	v.SetDefault("display.color", DefaultColor)
}

// Save writes cfg as dir's configuration file, creating dir if needed.
func Save(dir string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return util.WriteFileAtomic(Path(dir), data, 0o644)
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Toolchain.Java == "" {
		return &errors.ConfigError{
			Field:   "toolchain.java",
			Message: "must not be empty",
			Hint:    "set it to the java executable, e.g. java = \"java\"",
		}
	}
	if c.Toolchain.Apalache == "" {
		return &errors.ConfigError{
			Field:   "toolchain.apalache",
			Message: "must not be empty",
			Hint:    "set it to the apalache launcher, e.g. apalache = \"apalache-mc\"",
		}
	}
	if c.TLC.Workers < 0 {
		return &errors.ConfigError{
			Field:   "tlc.workers",
			Value:   c.TLC.Workers,
			Message: "must not be negative",
			Hint:    "use 0 to let TLC pick the number of workers",
		}
	}
	switch c.Display.Color {
	case "auto", "always", "never":
	default:
		return &errors.ConfigError{
			Field:   "display.color",
			Value:   c.Display.Color,
			Message: "unknown color mode",
			Hint:    "use auto, always or never",
		}
	}
	return nil
}
