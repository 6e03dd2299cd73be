package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tubeq.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != DefaultListen {
		t.Errorf("listen: got %q, want %q", cfg.Server.Listen, DefaultListen)
	}
	if cfg.Worker.PollInterval.Std() != 300*time.Millisecond {
		t.Errorf("poll interval: got %v, want 300ms", cfg.Worker.PollInterval.Std())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server:
  listen: "0.0.0.0:12000"
  write_timeout: 3s
worker:
  poll_interval: 50ms
  count: 4
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != "0.0.0.0:12000" {
		t.Errorf("listen: got %q, want %q", cfg.Server.Listen, "0.0.0.0:12000")
	}
	if cfg.Server.WriteTimeout.Std() != 3*time.Second {
		t.Errorf("write timeout: got %v, want 3s", cfg.Server.WriteTimeout.Std())
	}
	if cfg.Server.MaxCommandBytes != 64*1024 {
		t.Errorf("untouched field lost its default: got %d", cfg.Server.MaxCommandBytes)
	}
	if cfg.Worker.Count != 4 || cfg.Worker.PollInterval.Std() != 50*time.Millisecond {
		t.Errorf("worker: got %+v", cfg.Worker)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging: got %+v", cfg.Logging)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "worker:\n  poll_interval: soon\n")
	if _, err := Load(path); err == nil {
		t.Fatal("Load with bad duration succeeded, want error")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TUBEQ_LISTEN", "127.0.0.1:12345")
	t.Setenv("TUBEQ_LOG_LEVEL", "warn")
	t.Setenv("TUBEQ_LOG_FORMAT", "json")

	cfg := defaults()
	cfg.ApplyEnv()

	if cfg.Server.Listen != "127.0.0.1:12345" {
		t.Errorf("listen: got %q, want %q", cfg.Server.Listen, "127.0.0.1:12345")
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "json" {
		t.Errorf("logging: got %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	for name, mutate := range map[string]func(*Config){
		"bad listen":        func(c *Config) { c.Server.Listen = "not-an-address" },
		"zero timeout":      func(c *Config) { c.Server.WriteTimeout = 0 },
		"tiny command cap":  func(c *Config) { c.Server.MaxCommandBytes = 4 },
		"zero poll":         func(c *Config) { c.Worker.PollInterval = 0 },
		"zero workers":      func(c *Config) { c.Worker.Count = 0 },
		"unknown log level": func(c *Config) { c.Logging.Level = "verbose" },
		"unknown format":    func(c *Config) { c.Logging.Format = "xml" },
	} {
		cfg := defaults()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate succeeded, want error", name)
		}
	}
}

func TestDurationMarshalsAsString(t *testing.T) {
	t.Parallel()

	v, err := Duration(250 * time.Millisecond).MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}
	if v != "250ms" {
		t.Errorf("marshaled duration: got %v, want %q", v, "250ms")
	}
}
