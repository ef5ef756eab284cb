// Package cli turns the command line into an [Invocation]: global flags,
// at most one mode name, that mode's flags, and the raw tokens following
// `--`. Parsing happens once; afterwards the Invocation only answers
// "does mode X apply, and with which options".
package cli

import (
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Kind names one mode of matla.
type Kind int

const (
	Setup Kind = iota
	Uninstall
	Init
	Update
	TLC
	Apalache
	Run
	Test
	Clean
)

var kindNames = [...]string{
	Setup:     "setup",
	Uninstall: "uninstall",
	Init:      "init",
	Update:    "update",
	TLC:       "tlc",
	Apalache:  "apalache",
	Run:       "run",
	Test:      "test",
	Clean:     "clean",
}

var aliases = map[string]Kind{
	"apa": Apalache,
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds lists every mode in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// LookupKind resolves a mode name or alias.
func LookupKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	k, ok := aliases[name]
	return k, ok
}

// Options holds the mode-specific part of the command line. Fields a
// mode does not declare keep their zero value.
type Options struct {
	ProjectPath string
	ShowConfig  bool
	Release     bool
	Overwrite   bool
	JarPath     string
	Name        string
	NoGitignore bool
	Yes         bool

	Positional []string // arguments before `--`
	Trailing   []string // raw tokens after `--`, unsplit
}

// Invocation is the parsed command line. It is immutable.
type Invocation struct {
	kind    Kind
	matched bool
	opts    Options

	verbosity  int
	color      string
	globalPath string
	help       bool
	version    bool
}

// Mode returns the options of mode k when the invocation selects it.
func (inv *Invocation) Mode(k Kind) (Options, bool) {
	if inv == nil || !inv.matched || inv.kind != k {
		return Options{}, false
	}
	opts := inv.opts
	opts.Positional = append([]string(nil), inv.opts.Positional...)
	opts.Trailing = append([]string(nil), inv.opts.Trailing...)
	if opts.ProjectPath == "" {
		opts.ProjectPath = inv.ProjectPath()
	}
	return opts, true
}

// Kind returns the selected mode, if any.
func (inv *Invocation) Kind() (Kind, bool) { return inv.kind, inv.matched }

// Verbosity is the number of -v flags.
func (inv *Invocation) Verbosity() int { return inv.verbosity }

// Color is the --color value, empty when not given.
func (inv *Invocation) Color() string { return inv.color }

// Help reports whether -h/--help was given, globally or for the mode.
func (inv *Invocation) Help() bool { return inv.help }

// Version reports whether --version was given.
func (inv *Invocation) Version() bool { return inv.version }

// ProjectPath is the mode's --path if given, else the global one, else ".".
func (inv *Invocation) ProjectPath() string {
	switch {
	case inv.matched && inv.opts.ProjectPath != "":
		return inv.opts.ProjectPath
	case inv.globalPath != "":
		return inv.globalPath
	default:
		return "."
	}
}

// Parse builds an Invocation from args (without the program name).
func Parse(args []string) (*Invocation, error) {
	inv := &Invocation{}

	fs := newFlagSet("matla")
	fs.SetInterspersed(false)
	fs.CountVarP(&inv.verbosity, "verbose", "v", "Increase verbosity (repeatable)")
	fs.StringVar(&inv.color, "color", "", "Colored output: auto, always or never")
	fs.StringVarP(&inv.globalPath, "path", "p", "", "Project directory")
	fs.BoolVarP(&inv.help, "help", "h", false, "Show this help")
	fs.BoolVarP(&inv.version, "version", "V", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) == 0 || inv.help || inv.version {
		return inv, nil
	}

	kind, ok := LookupKind(rest[0])
	if !ok {
		return nil, fmt.Errorf("unknown mode %q (use --help for the list of modes)", rest[0])
	}
	inv.kind = kind
	inv.matched = true

	mfs := modeFlags(kind, &inv.opts, inv)
	if err := mfs.Parse(rest[1:]); err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	all := mfs.Args()
	if dash := mfs.ArgsLenAtDash(); dash >= 0 {
		inv.opts.Positional = all[:dash]
		inv.opts.Trailing = all[dash:]
	} else {
		inv.opts.Positional = all
	}
	return inv, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

// modeFlags declares the flags of mode k, binding them into o. The
// flags shared with the global set are bound into inv and keep the
// values parsed before the mode name.
func modeFlags(k Kind, o *Options, inv *Invocation) *flag.FlagSet {
	fs := newFlagSet(k.String())
	fs.BoolVarP(&inv.help, "help", "h", inv.help, "Show help for this mode")
	verbosity := inv.verbosity
	fs.CountVarP(&inv.verbosity, "verbose", "v", "Increase verbosity (repeatable)")
	inv.verbosity = verbosity
	fs.StringVar(&inv.color, "color", inv.color, "Colored output: auto, always or never")

	projectPath := func() {
		fs.StringVarP(&o.ProjectPath, "path", "p", "", "Project directory (default: current directory)")
	}

	switch k {
	case Setup:
		fs.StringVar(&o.JarPath, "tla2tools", "", "Use this tla2tools.jar instead of downloading it")
		fs.BoolVar(&o.Overwrite, "overwrite", false, "Overwrite an existing setup")
	case Uninstall:
		fs.BoolVarP(&o.Yes, "yes", "y", false, "Remove without asking")
	case Init:
		projectPath()
		fs.StringVar(&o.Name, "name", "", "Project name (default: directory name)")
		fs.BoolVar(&o.NoGitignore, "no_gitignore", false, "Do not touch .gitignore")
	case Update:
	case TLC:
		projectPath()
		fs.BoolVar(&o.ShowConfig, "show_tlc_config", false, "Display the command used to run TLC")
		fs.BoolVar(&o.Release, "release", false, "Use the release target")
	case Apalache:
		projectPath()
		fs.BoolVar(&o.ShowConfig, "show_apalache_config", false, "Display the command used to run Apalache")
	case Run:
		projectPath()
		fs.BoolVar(&o.ShowConfig, "show_run_config", false, "Display the command used to run TLC")
		fs.BoolVar(&o.Release, "release", false, "Use the release target")
	case Test:
		projectPath()
		fs.BoolVar(&o.Release, "release", false, "Use the release target")
	case Clean:
		projectPath()
	}
	return fs
}

// ── usage ────────────────────────────────────────────────────────────

var synopses = map[Kind]string{
	Setup:     "Set up the TLA+ toolchain in the user directory",
	Uninstall: "Remove the user directory",
	Init:      "Create a Matla.toml manifest in a project",
	Update:    "Download the latest tla2tools.jar",
	TLC:       "Call TLC with some arguments (after --)",
	Apalache:  "Call Apalache with some arguments (after --)",
	Run:       "Run TLC on the project's entry module",
	Test:      "Run the project's test modules",
	Clean:     "Remove the project's target directory",
}

// Usage prints the top-level help.
func Usage(w io.Writer, version string) {
	fmt.Fprintf(w, "matla %s - TLA+ project manager\n\n", version)
	fmt.Fprintf(w, "Usage:\n  matla [options] <mode> [mode options] [-- tool options]\n\nModes:\n")
	for _, k := range Kinds() {
		fmt.Fprintf(w, "  %-10s %s\n", k, synopses[k])
	}
	fmt.Fprintf(w, `
Options:
  -p, --path <dir>      Project directory (default: current directory)
  -v, --verbose         Increase verbosity (repeatable)
      --color <when>    Colored output: auto, always or never
  -h, --help            Show this help
  -V, --version         Print version and exit

Examples:
  matla setup                                Download tla2tools.jar
  matla init --name clock                    Start a project here
  matla run --show_run_config                Show and run the TLC command
  matla apalache -- --checker=foo            Call Apalache with options
  matla test -v                              Run the tests/ modules
`)
}

// ModeUsage prints the help of one mode.
func ModeUsage(w io.Writer, k Kind) {
	fs := modeFlags(k, &Options{}, &Invocation{})
	fmt.Fprintf(w, "%s\n\nUsage:\n  matla %s [options]%s\n\nOptions:\n", synopses[k], k, modeTail(k))
	fs.SetOutput(w)
	fs.PrintDefaults()
	if names := aliasesOf(k); len(names) > 0 {
		fmt.Fprintf(w, "\nAliases: %s\n", strings.Join(names, ", "))
	}
}

func modeTail(k Kind) string {
	switch k {
	case TLC, Apalache:
		return " [-- tool options]"
	case Run:
		return " [MODULE] [-- tool options]"
	case Test:
		return " [FILTER] [-- tool options]"
	default:
		return ""
	}
}

func aliasesOf(k Kind) []string {
	var out []string
	for name, ak := range aliases {
		if ak == k {
			out = append(out, name)
		}
	}
	return out
}
