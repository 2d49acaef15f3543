package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "display.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
network = "tcp"
addr = "0.0.0.0:3800"
rate_limit = 500.0
display = "studio"
etcd_endpoints = ["127.0.0.1:2379"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Network != "tcp" || cfg.Addr != "0.0.0.0:3800" {
		t.Errorf("listen config: got %s %s", cfg.Network, cfg.Addr)
	}
	if cfg.RateLimit.Rate != 500 {
		t.Errorf("rate_limit: got %v, want 500", cfg.RateLimit.Rate)
	}
	// Keys absent from the file keep their defaults.
	if cfg.RateLimit.Burst != Default().RateLimit.Burst {
		t.Errorf("rate_burst should keep its default, got %d", cfg.RateLimit.Burst)
	}
	if cfg.Discovery.Display != "studio" || len(cfg.Discovery.Endpoints) != 1 {
		t.Errorf("discovery config: got %+v", cfg.Discovery)
	}
}

func TestLoadRejectsBadNetwork(t *testing.T) {
	path := writeConfig(t, `network = "udp"`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted an unsupported network")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("Load accepted a missing file")
	}
}
