// Package config holds all configurable values for the server. Precedence
// is command-line flags over the process environment over the optional
// .konsol.toml file in the host application root.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/akodkod/konsol/internal/hostruntime"
)

// FileName is the optional config file looked up in the working directory.
const FileName = ".konsol.toml"

// Transport selection.
const (
	TransportStdio = "stdio"
	TransportTCP   = "tcp"
)

// Config holds the effective server configuration. The working directory at
// launch is treated as the host application's root.
type Config struct {
	WorkingDirectory string
	Transport        string
	ListenAddr       string

	// Environment is the host environment profile (development, test,
	// production).
	Environment string

	// SessionTTLMinutes enables idle-session expiry when positive.
	SessionTTLMinutes int

	// EvalTimeoutSeconds is parsed and validated but reserved: evaluation
	// is not bounded in this version.
	EvalTimeoutSeconds int
}

// fileConfig is the shape of .konsol.toml.
type fileConfig struct {
	Environment        string `toml:"environment"`
	SessionTTLMinutes  int    `toml:"session_ttl_minutes"`
	EvalTimeoutSeconds int    `toml:"eval_timeout_seconds"`
}

// Default returns the configuration for the given application root before
// file, environment, and flag overrides.
func Default(workingDir string) *Config {
	return &Config{
		WorkingDirectory: workingDir,
		Transport:        TransportStdio,
		Environment:      hostruntime.DefaultProfile,
	}
}

// LoadFile merges .konsol.toml from the working directory, if present. A
// missing file is not an error.
func (c *Config) LoadFile() error {
	path := filepath.Join(c.WorkingDirectory, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	var fc fileConfig
	if _, err := toml.Decode(string(data), &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if fc.Environment != "" {
		c.Environment = fc.Environment
	}
	if fc.SessionTTLMinutes > 0 {
		c.SessionTTLMinutes = fc.SessionTTLMinutes
	}
	if fc.EvalTimeoutSeconds > 0 {
		c.EvalTimeoutSeconds = fc.EvalTimeoutSeconds
	}
	return nil
}

// ApplyEnv merges the process environment over the file values.
func (c *Config) ApplyEnv() {
	if profile := os.Getenv(hostruntime.EnvVar); profile != "" {
		c.Environment = profile
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.WorkingDirectory == "" {
		return fmt.Errorf("working directory is required")
	}
	info, err := os.Stat(c.WorkingDirectory)
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("working directory is not a directory: %s", c.WorkingDirectory)
	}

	switch c.Transport {
	case TransportStdio:
	case TransportTCP:
		if c.ListenAddr == "" {
			return fmt.Errorf("tcp transport requires a listen address")
		}
	default:
		return fmt.Errorf("transport must be %q or %q", TransportStdio, TransportTCP)
	}

	if c.SessionTTLMinutes < 0 {
		return fmt.Errorf("session TTL must not be negative")
	}
	if c.EvalTimeoutSeconds < 0 {
		return fmt.Errorf("eval timeout must not be negative")
	}
	return nil
}
