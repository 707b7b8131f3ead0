package api

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	cfg, err := LoadServerConfig("")
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg != DefaultServerConfig() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadServerConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := "addr: 0.0.0.0:9000\nstate_file: /var/lib/kanuka/state.json\nrate_limit:\n  burst: 5\nmetrics: false\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(rateLimitRPSEnv, "2.5")

	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.Addr != "0.0.0.0:9000" || cfg.StateFile != "/var/lib/kanuka/state.json" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.RateLimit.Burst != 5 || cfg.RateLimit.RPS != 2.5 {
		t.Fatalf("rate limit = %+v", cfg.RateLimit)
	}
	if cfg.Metrics {
		t.Fatal("metrics should be disabled by the file")
	}

	t.Setenv(addrEnv, "127.0.0.1:7000")
	t.Setenv(metricsEnv, "true")
	cfg, _ = LoadServerConfig(path)
	if cfg.Addr != "127.0.0.1:7000" || !cfg.Metrics {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadServerConfig_Errors(t *testing.T) {
	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("addr: [unterminated"), 0600)
	if _, err := LoadServerConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}
