package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/akodkod/konsol/internal/hostruntime"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default("/app")
	if cfg.Transport != TransportStdio {
		t.Errorf("default transport = %q", cfg.Transport)
	}
	if cfg.Environment != hostruntime.DefaultProfile {
		t.Errorf("default environment = %q", cfg.Environment)
	}
	if cfg.SessionTTLMinutes != 0 {
		t.Errorf("idle expiry must be disabled by default")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
environment = "test"
session_ttl_minutes = 30
eval_timeout_seconds = 10
`)

	cfg := Default(dir)
	if err := cfg.LoadFile(); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Environment != "test" {
		t.Errorf("environment = %q", cfg.Environment)
	}
	if cfg.SessionTTLMinutes != 30 {
		t.Errorf("session TTL = %d", cfg.SessionTTLMinutes)
	}
	if cfg.EvalTimeoutSeconds != 10 {
		t.Errorf("eval timeout = %d", cfg.EvalTimeoutSeconds)
	}
}

func TestLoadFile_MissingFileIsFine(t *testing.T) {
	cfg := Default(t.TempDir())
	if err := cfg.LoadFile(); err != nil {
		t.Errorf("missing config file must not error: %v", err)
	}
}

func TestLoadFile_MalformedTOML(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `environment = [unclosed`)

	cfg := Default(dir)
	if err := cfg.LoadFile(); err == nil {
		t.Errorf("malformed config file must error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `environment = "test"`)

	cfg := Default(dir)
	if err := cfg.LoadFile(); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	t.Setenv(hostruntime.EnvVar, "production")
	cfg.ApplyEnv()
	if cfg.Environment != "production" {
		t.Errorf("environment = %q, want the env var to win", cfg.Environment)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	cfg := Default(dir)
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}

	cfg = Default(dir)
	cfg.Transport = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Errorf("unknown transport must fail validation")
	}

	cfg = Default(dir)
	cfg.Transport = TransportTCP
	if err := cfg.Validate(); err == nil {
		t.Errorf("tcp without a listen address must fail validation")
	}
	cfg.ListenAddr = "127.0.0.1:0"
	if err := cfg.Validate(); err != nil {
		t.Errorf("tcp with an address must validate: %v", err)
	}

	cfg = Default(filepath.Join(dir, "missing"))
	if err := cfg.Validate(); err == nil {
		t.Errorf("missing working directory must fail validation")
	}

	cfg = Default(dir)
	cfg.SessionTTLMinutes = -1
	if err := cfg.Validate(); err == nil {
		t.Errorf("negative session TTL must fail validation")
	}
}
