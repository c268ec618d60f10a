package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), ConfigFileName))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, DefaultAddr)
	}
	if cfg.Transport != DefaultTransport {
		t.Errorf("Transport = %q, want %q", cfg.Transport, DefaultTransport)
	}
	if cfg.MaxQueuedEvents != DefaultMaxQueuedEvents {
		t.Errorf("MaxQueuedEvents = %d, want %d", cfg.MaxQueuedEvents, DefaultMaxQueuedEvents)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	content := `{"addr": "peer:9000", "transport": "websocket", "requestTimeout": "30s", "maxQueuedEvents": 64}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != "peer:9000" || cfg.Transport != "websocket" || cfg.MaxQueuedEvents != 64 {
		t.Errorf("cfg = %+v", cfg)
	}
	d, err := cfg.ParseRequestTimeout()
	if err != nil || d != 30*time.Second {
		t.Errorf("ParseRequestTimeout() = (%v, %v), want (30s, nil)", d, err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"addr": "from-file:1"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STRAND_ADDR", "from-env:2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Addr != "from-env:2" {
		t.Errorf("Addr = %q, want env override", cfg.Addr)
	}
}

func TestValidateRejectsUnknownTransport(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"transport": "carrier-pigeon"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("Load() accepted unknown transport")
	}
}

func TestRequestTimeoutNone(t *testing.T) {
	cfg := &Config{RequestTimeout: "none"}
	cfg.applyDefaults()
	d, err := cfg.ParseRequestTimeout()
	if err != nil {
		t.Fatalf("ParseRequestTimeout() error = %v", err)
	}
	if d >= 0 {
		t.Errorf("ParseRequestTimeout(none) = %v, want negative (disabled)", d)
	}
}

func TestRequestTimeoutRejectsGarbage(t *testing.T) {
	cfg := &Config{RequestTimeout: "soonish"}
	if _, err := cfg.ParseRequestTimeout(); err == nil {
		t.Errorf("ParseRequestTimeout accepted garbage")
	}
}
