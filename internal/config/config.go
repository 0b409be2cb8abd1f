// Package config loads server settings.
// Precedence: flags > env > file > defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Transport modes.
const (
	ModeStdio = "stdio"
	ModeHTTP  = "http"
)

// Environment variables read by ApplyEnv.
const (
	EnvMode     = "SSH_TOOLS_MODE"
	EnvPort     = "PORT"
	EnvDebug    = "SSH_TOOLS_DEBUG"
	EnvLogLevel = "SSH_TOOLS_LOG_LEVEL"
	EnvSSHDir   = "SSH_TOOLS_SSH_DIR"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerConfig `toml:"server" yaml:"server" json:"server"`
	Log    LogConfig    `toml:"log" yaml:"log" json:"log"`
	Probe  ProbeConfig  `toml:"probe" yaml:"probe" json:"probe"`
	Audit  AuditConfig  `toml:"audit" yaml:"audit" json:"audit"`
}

// ServerConfig selects the MCP transport.
type ServerConfig struct {
	Mode string `toml:"mode" yaml:"mode" json:"mode"`
	Port string `toml:"port" yaml:"port" json:"port"` // http mode only
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level" json:"level"`
	Pretty bool   `toml:"pretty" yaml:"pretty" json:"pretty"`
}

// ProbeConfig holds the prober timeouts used when a call does not set one.
type ProbeConfig struct {
	ConnectTimeoutSeconds int `toml:"connect_timeout_seconds" yaml:"connect_timeout_seconds" json:"connect_timeout_seconds"`
	ScanTimeoutMs         int `toml:"scan_timeout_ms" yaml:"scan_timeout_ms" json:"scan_timeout_ms"`
}

// AuditConfig locates the credential directory.
type AuditConfig struct {
	SSHDir string `toml:"ssh_dir" yaml:"ssh_dir" json:"ssh_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Mode: ModeStdio, Port: "8000"},
		Log:    LogConfig{Level: "info"},
		Probe:  ProbeConfig{ConnectTimeoutSeconds: 5, ScanTimeoutMs: 500},
		Audit:  AuditConfig{SSHDir: "~/.ssh"},
	}
}

// ConnectTimeout returns the probe connect timeout.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Probe.ConnectTimeoutSeconds) * time.Second
}

// ScanTimeout returns the per-port scan timeout.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Probe.ScanTimeoutMs) * time.Millisecond
}

// Load returns the defaults overlaid with the file at path. An empty path
// yields the defaults. The decoder is chosen by file extension.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .toml, .yaml, .yml or .json)", ext)
	}

	return cfg, nil
}

// ApplyEnv overlays environment variables read through lookup, usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvMode); ok {
		c.Server.Mode = v
	}
	if v, ok := lookup(EnvPort); ok {
		c.Server.Port = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvDebug); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDebug, err)
		}
		if debug {
			c.Log.Level = "debug"
		}
	}
	if v, ok := lookup(EnvSSHDir); ok {
		c.Audit.SSHDir = v
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case ModeStdio, ModeHTTP:
	default:
		return fmt.Errorf("unknown mode %q, use %q or %q", c.Server.Mode, ModeStdio, ModeHTTP)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Server.Port)
	}

	if c.Probe.ConnectTimeoutSeconds <= 0 {
		return fmt.Errorf("probe connect timeout must be positive, got %d", c.Probe.ConnectTimeoutSeconds)
	}
	if c.Probe.ScanTimeoutMs <= 0 {
		return fmt.Errorf("probe scan timeout must be positive, got %d", c.Probe.ScanTimeoutMs)
	}
	if c.Audit.SSHDir == "" {
		return fmt.Errorf("ssh directory cannot be empty")
	}
	return nil
}
