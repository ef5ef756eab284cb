package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across the config file, environment variables and the installer.

const (
	// DirEnv overrides the user directory.
	DirEnv = "MATLA_HOME"

	// DirName is the user directory's name under os.UserConfigDir.
	DirName = "matla"

	// FileName is the user configuration file inside the user directory.
	FileName = "matla.toml"

	// JarName is the file name of the TLA+ tools jar in the user directory.
	JarName = "tla2tools.jar"

	// DefaultJava is the Java launcher used to run TLC.
	DefaultJava = "java"

	// DefaultApalache is the Apalache launcher.
	DefaultApalache = "apalache-mc"

	// DefaultColor is the color mode when nothing else is configured.
	DefaultColor = "auto"

	// DefaultTLA2ToolsURL is where setup and update fetch the jar.
	DefaultTLA2ToolsURL = "https://github.com/tlaplus/tlaplus/releases/latest/download/tla2tools.jar"

	// DefaultDownloadTimeout bounds one download attempt.
	DefaultDownloadTimeout = 2 * time.Minute

	// DefaultDownloadAttempts is how many times a download is tried.
	DefaultDownloadAttempts = 4
)

// DefaultJavaOpts are passed to the JVM before the class path.
var DefaultJavaOpts = []string{"-XX:+UseParallelGC"}
