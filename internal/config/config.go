// Package config loads orgtwin's configuration: a TOML file layered
// under environment variables, exactly as the teacher's SpecMCP config
// package does (file → env → validate).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds all configuration for orgtwin.
// Precedence: environment variables > config file > defaults.
type Config struct {
	Graph     GraphConfig     `toml:"graph"`
	Org       OrgConfig       `toml:"org"`
	Server    ServerConfig    `toml:"server"`
	Transport TransportConfig `toml:"transport"`
	Log       LogConfig       `toml:"log"`
}

// GraphConfig controls the graph state service (spec.md §4.7, §6.5).
type GraphConfig struct {
	// DefaultPath is the canonical graph file loaded at process start
	// (GRAPH_DEFAULT_PATH). Empty means "start with no graph loaded".
	DefaultPath string `toml:"default_path"`
	// Strict rejects unknown entity fields at import time
	// (GRAPH_STRICT).
	Strict bool `toml:"strict"`
	// Backend names the engine factory entry to use (GRAPH_BACKEND).
	Backend string `toml:"backend"`
}

// OrgConfig seeds the synthetic generator (spec.md §4.2, §4.3).
type OrgConfig struct {
	Industry      string `toml:"industry"`
	EmployeeCount int    `toml:"employee_count"`
	Seed          int64  `toml:"seed"`
}

// ServerConfig holds process metadata (name, version) loaded from config;
// neither the ATP nor the REST transport reports it.
type ServerConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// TransportConfig holds transport-related settings for `serve`.
type TransportConfig struct {
	// Mode selects the transport: "atp" (default, stdio) or "rest".
	Mode string `toml:"mode"`
	// Port is the HTTP listen port. Only used when Mode is "rest".
	Port string `toml:"port"`
	// Host is the HTTP listen address. Only used when Mode is "rest".
	Host string `toml:"host"`
	// CORSOrigins is a comma-separated list of allowed CORS origins.
	CORSOrigins string `toml:"cors_origins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Load creates a Config by reading from a TOML config file and environment
// variables. Precedence: environment variables > config file > defaults.
//
// Config file search order (first found wins):
//  1. Path passed via configPath parameter (from --config flag)
//  2. ORGTWIN_CONFIG environment variable
//  3. ./orgtwin.toml (current directory)
//  4. ~/.config/orgtwin/orgtwin.toml (XDG-style)
//
// All fields are optional in the config file. Environment variables always
// override file values.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		Graph: GraphConfig{
			Backend: "memory",
		},
		Org: OrgConfig{
			Industry:      "technology",
			EmployeeCount: 500,
			Seed:          1,
		},
		Server: ServerConfig{
			Name:    "orgtwin",
			Version: "0.1.0",
		},
		Transport: TransportConfig{
			Mode:        "atp",
			Port:        "8420",
			Host:        "0.0.0.0",
			CORSOrigins: "*",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile finds and parses the TOML config file. If no file is found,
// this is a no-op (config file is optional).
func (c *Config) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil // no config file found; rely on defaults + env
	}

	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	return nil
}

// resolveConfigPath determines which config file to use. Returns empty string
// if no config file is found (config file is optional).
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit // caller wants this file; let DecodeFile report if missing
	}

	if p := os.Getenv("ORGTWIN_CONFIG"); p != "" {
		return p
	}

	if _, err := os.Stat("orgtwin.toml"); err == nil {
		return "orgtwin.toml"
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := home + "/.config/orgtwin/orgtwin.toml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnv overlays environment variables on top of existing config values.
// An env var only takes effect if it is non-empty.
func (c *Config) applyEnv() {
	// Graph state service (spec.md §6.5)
	envOverride("GRAPH_DEFAULT_PATH", &c.Graph.DefaultPath)
	envOverride("GRAPH_BACKEND", &c.Graph.Backend)
	if v := os.Getenv("GRAPH_STRICT"); v != "" {
		c.Graph.Strict = v == "true" || v == "1"
	}

	// Org profile seed
	envOverride("ORGTWIN_INDUSTRY", &c.Org.Industry)
	if v := os.Getenv("ORGTWIN_EMPLOYEE_COUNT"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			c.Org.EmployeeCount = n
		}
	}
	if v := os.Getenv("ORGTWIN_SEED"); v != "" {
		var seed int64
		if _, err := fmt.Sscanf(v, "%d", &seed); err == nil {
			c.Org.Seed = seed
		}
	}

	// Transport
	envOverride("ORGTWIN_TRANSPORT", &c.Transport.Mode)
	envOverride("ORGTWIN_PORT", &c.Transport.Port)
	envOverride("ORGTWIN_HOST", &c.Transport.Host)
	envOverride("ORGTWIN_CORS_ORIGINS", &c.Transport.CORSOrigins)

	// Logging
	envOverride("ORGTWIN_LOG_LEVEL", &c.Log.Level)
}

// Validate checks that configuration values are internally consistent.
func (c *Config) Validate() error {
	switch c.Transport.Mode {
	case "atp", "rest":
	default:
		return fmt.Errorf("invalid transport mode: %q (must be \"atp\" or \"rest\")", c.Transport.Mode)
	}
	if c.Org.EmployeeCount <= 0 {
		return fmt.Errorf("org.employee_count must be positive, got %d", c.Org.EmployeeCount)
	}
	return nil
}

// envOverride sets *dst to the value of the named env var, if it is non-empty.
func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
