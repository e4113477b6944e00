package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Game.Key != nil || cfg.Server.Addr != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[game]\nkey = \"s\"\nduration = 90\nrelease-ms = 60\n\n[server]\naddr = \":9000\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Game.Key == nil || *cfg.Game.Key != "s" {
		t.Fatalf("unexpected key: %v", cfg.Game.Key)
	}
	if cfg.Game.Duration == nil || *cfg.Game.Duration != 90 {
		t.Fatalf("unexpected duration: %v", cfg.Game.Duration)
	}
	if cfg.Game.ReleaseMs == nil || *cfg.Game.ReleaseMs != 60 {
		t.Fatalf("unexpected release-ms: %v", cfg.Game.ReleaseMs)
	}
	if cfg.Game.Device != nil {
		t.Fatalf("expected unset device to stay nil")
	}
	if cfg.Server.Addr == nil || *cfg.Server.Addr != ":9000" {
		t.Fatalf("unexpected addr: %v", cfg.Server.Addr)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[game]\nkeys = \"a\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MASHR_DB", "/tmp/custom.db")
	t.Setenv("MASHR_ADDR", ":7000")
	cfg, err := LoadEnv()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if cfg.ResolveDBPath() != "/tmp/custom.db" || cfg.Addr != ":7000" {
		t.Fatalf("unexpected env config: %+v", cfg)
	}
}

func TestResolveDBPathDefault(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := (EnvConfig{}).ResolveDBPath(); got != filepath.Join("/data", "mashr", "mashr.db") {
		t.Fatalf("unexpected default db path: %s", got)
	}
}
