package config

// loader.go - configuration overlay from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Configuration file  (config.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the MATLA_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.
func LoadFromEnv(cfg *Config) {
	// Toolchain
	if v := os.Getenv("MATLA_JAVA"); v != "" {
		cfg.Toolchain.Java = v
	}
	if v := os.Getenv("MATLA_JAVA_OPTS"); v != "" {
		cfg.Toolchain.JavaOpts = strings.Fields(v)
	}
	if v := os.Getenv("MATLA_TLA2TOOLS"); v != "" {
		cfg.Toolchain.TLA2Tools = v
	}
	if v := os.Getenv("MATLA_APALACHE"); v != "" {
		cfg.Toolchain.Apalache = v
	}

	// TLC
	if v := envInt("MATLA_TLC_WORKERS"); v > 0 {
		cfg.TLC.Workers = v
	}

	// Output
	if v := os.Getenv("MATLA_COLOR"); v != "" {
		cfg.Display.Color = strings.ToLower(v)
	}
	if envBool("MATLA_NO_COLOR") {
		cfg.Display.Color = "never"
	}
	if v := VerbosityFromEnv(); v > 0 {
		cfg.Verbose = v
	}
}

// VerbosityFromEnv reads MATLA_VERBOSE. The driver needs it before any
// configuration is loaded.
func VerbosityFromEnv() int { return envInt("MATLA_VERBOSE") }

// ColorFromEnv reads the color mode from MATLA_NO_COLOR and MATLA_COLOR,
// empty when neither is set.
func ColorFromEnv() string {
	if envBool("MATLA_NO_COLOR") {
		return "never"
	}
	return strings.ToLower(os.Getenv("MATLA_COLOR"))
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
