package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func noEnv(string) string { return "" }

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.toml"), noEnv)
	if err != nil {
		t.Fatalf("load with missing file failed: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.AskTimeout() != 60*time.Second {
		t.Errorf("AskTimeout() = %v, want 60s", cfg.AskTimeout())
	}
	if cfg.Terminal.Program != "" || cfg.Log.File != "" {
		t.Errorf("defaults carried unexpected values: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
version = 1
[ask]
timeout_seconds = 90
[terminal]
program = "kitty"
[log]
file = "/tmp/parley.log"
`)
	cfg, err := load(path, noEnv)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Ask.TimeoutSeconds != 90 {
		t.Errorf("timeout = %d, want 90", cfg.Ask.TimeoutSeconds)
	}
	if cfg.Terminal.Program != "kitty" {
		t.Errorf("terminal = %q, want kitty", cfg.Terminal.Program)
	}
	if cfg.Log.File != "/tmp/parley.log" {
		t.Errorf("log file = %q", cfg.Log.File)
	}
}

// A config file that sets only some values keeps the defaults for the rest.
func TestLoadPartialFile(t *testing.T) {
	path := writeConfig(t, `
[terminal]
program = "alacritty"
`)
	cfg, err := load(path, noEnv)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Ask.TimeoutSeconds != 60 {
		t.Errorf("timeout = %d, want the 60s default", cfg.Ask.TimeoutSeconds)
	}
	if cfg.Terminal.Program != "alacritty" {
		t.Errorf("terminal = %q, want alacritty", cfg.Terminal.Program)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[ask]
timeout_seconds = 90
`)
	env := map[string]string{
		"PARLEY_TIMEOUT_SECONDS": "30",
		"PARLEY_TERMINAL":        "xterm",
		"PARLEY_LOG_FILE":        "/tmp/override.log",
	}
	cfg, err := load(path, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Ask.TimeoutSeconds != 30 {
		t.Errorf("timeout = %d, want the env override 30", cfg.Ask.TimeoutSeconds)
	}
	if cfg.Terminal.Program != "xterm" {
		t.Errorf("terminal = %q, want xterm", cfg.Terminal.Program)
	}
	if cfg.Log.File != "/tmp/override.log" {
		t.Errorf("log file = %q", cfg.Log.File)
	}
}

func TestLoadRejectsBadEnvInt(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.toml"), func(k string) string {
		if k == "PARLEY_TIMEOUT_SECONDS" {
			return "soon"
		}
		return ""
	})
	if err == nil || !strings.Contains(err.Error(), "PARLEY_TIMEOUT_SECONDS") {
		t.Errorf("err = %v, want a PARLEY_TIMEOUT_SECONDS complaint", err)
	}
}

func TestLoadRejectsWrongVersion(t *testing.T) {
	path := writeConfig(t, "version = 2\n")
	_, err := load(path, noEnv)
	if err == nil || !strings.Contains(err.Error(), "unsupported config version 2") {
		t.Errorf("err = %v, want an unsupported-version complaint", err)
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	path := writeConfig(t, `
[ask]
timeout_seconds = 0
`)
	if _, err := load(path, noEnv); err == nil {
		t.Error("zero timeout passed validation")
	}

	path = writeConfig(t, `
[ask]
timeout_seconds = -5
`)
	if _, err := load(path, noEnv); err == nil {
		t.Error("negative timeout passed validation")
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	path := writeConfig(t, "version = [broken\n")
	if _, err := load(path, noEnv); err == nil {
		t.Error("malformed TOML passed")
	}
}
