package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: "9090"
  allowedOrigins: ["https://admin.example.com"]
redis:
  addr: localhost:6379
  ttl: 2m
mongo:
  uri: mongodb://localhost:27017
  database: assessments
attempt:
  ttl: 24h
log:
  level: debug
  format: console
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || len(cfg.Server.AllowedOrigins) != 1 {
		t.Fatalf("unexpected server section %+v", cfg.Server)
	}
	if cfg.Mongo.Database != "assessments" || cfg.Log.Format != "console" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if got := TTLDuration(cfg.Attempt.TTL, time.Hour); got != 24*time.Hour {
		t.Fatalf("expected 24h attempt ttl, got %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTTLDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"", time.Minute},
		{"bogus", time.Minute},
		{"90s", 90 * time.Second},
	}
	for _, tt := range tests {
		if got := TTLDuration(tt.raw, time.Minute); got != tt.want {
			t.Fatalf("TTLDuration(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestInitLogger(t *testing.T) {
	if err := InitLogger(LogConfig{Level: "warn", Format: "console"}); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	if err := InitLogger(LogConfig{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
