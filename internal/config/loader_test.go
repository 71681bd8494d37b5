package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "network:\n  bind_address: 127.0.0.1:9999\n  max_connections: 7\nmonitoring:\n  log_level: debug\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Network.BindAddress != "127.0.0.1:9999" || cfg.Network.MaxConnections != 7 || cfg.Monitoring.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	// untouched fields keep defaults
	if cfg.Network.MaxMessageSize != DefaultMaxMessageSize || cfg.Embedding.ModelsConfig != "embeddingmodels.toml" {
		t.Fatalf("defaults lost: %+v", cfg.Network)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"network":{"bind_address":":7070"},"http":{"bind_address":":7071","cors_origins":["https://a.example"]}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Network.BindAddress != ":7070" || cfg.HTTP.BindAddress != ":7071" || len(cfg.HTTP.CORSOrigins) != 1 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "config.toml", `
[network]
bind_address = "0.0.0.0:8787"
max_connections = 3
write_timeout_secs = 5

[embedding]
models_config = "models/embeddingmodels.toml"
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Network.MaxConnections != 3 || cfg.Network.WriteTimeout().Seconds() != 5 {
		t.Fatalf("unexpected cfg: %+v", cfg.Network)
	}
	if got := cfg.ModelsConfigPath(p); got != filepath.Join(d, "models", "embeddingmodels.toml") {
		t.Fatalf("models config path: %q", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}
