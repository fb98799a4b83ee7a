package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"netscout/internal/scan"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netscout.yaml")
	data := []byte("scan:\n  network: 10.0.0.0/24\n  threads: 8\n  timeout_seconds: 0.5\nstore:\n  path: scans.db\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scan.Network != "10.0.0.0/24" || cfg.Scan.Threads != 8 || cfg.Store.Path != "scans.db" {
		t.Fatalf("expected overrides, got %+v", cfg)
	}
	if len(cfg.Scan.Ports) != len(scan.DefaultPorts) || cfg.Output.Dir != "results" {
		t.Fatalf("expected untouched keys to keep defaults, got %+v", cfg)
	}

	sc := cfg.ToScan()
	if sc.Range != "10.0.0.0/24" || sc.Concurrency != 8 || sc.Timeout != 500*time.Millisecond {
		t.Fatalf("unexpected scan config %+v", sc)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("scan: [unclosed"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netscout.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write default: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Fatalf("default file does not match Default():\n%+v\n%+v", cfg, Default())
	}
	if err := WriteDefault(path); err == nil {
		t.Fatalf("expected an error when the file exists")
	}
}

func TestToScanValidates(t *testing.T) {
	sc := Default().ToScan()
	if err := sc.Validate(); err != nil {
		t.Fatalf("default scan config should validate: %v", err)
	}
	if sc.Timeout != 2*time.Second || sc.MaxBodyBytes != 2<<20 {
		t.Fatalf("unexpected conversion %+v", sc)
	}
}
