package osdesc

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.defaults()
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.MaxBytes != 1<<20 {
		t.Errorf("MaxBytes = %d", cfg.MaxBytes)
	}
	if cfg.UserAgent != "osdesc/1.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.URLValidator == nil {
		t.Error("URLValidator not defaulted")
	}
	if cfg.Logger == nil {
		t.Error("Logger not defaulted")
	}
}

func TestLoadConfig(t *testing.T) {
	yaml := `
max_bytes: 2048
user_agent: "osdesc-test/0.1"
`
	path := filepath.Join(t.TempDir(), "osdesc.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MaxBytes != 2048 {
		t.Errorf("MaxBytes = %d", cfg.MaxBytes)
	}
	if cfg.UserAgent != "osdesc-test/0.1" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want the default", cfg.Timeout)
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("max_bytes: [not an int"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
