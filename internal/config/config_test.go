package config

import (
	"testing"
	"time"
)

func TestLoadParsesStreamSettings(t *testing.T) {
	t.Setenv("WORKSPACE_ROOT", "/tmp/workspace")
	t.Setenv("HEARTBEAT_INTERVAL", "5s")
	t.Setenv("REQUEST_TIMEOUT", "90s")
	t.Setenv("MAX_TOKENS", "2048")
	t.Setenv("TEMPERATURE", "0.2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.HeartbeatInterval != 5*time.Second {
		t.Fatalf("unexpected HeartbeatInterval: %v", cfg.HeartbeatInterval)
	}
	if cfg.RequestTimeout != 90*time.Second {
		t.Fatalf("unexpected RequestTimeout: %v", cfg.RequestTimeout)
	}
	if cfg.MaxTokens != 2048 {
		t.Fatalf("unexpected MaxTokens: %d", cfg.MaxTokens)
	}
	if cfg.Temperature != 0.2 {
		t.Fatalf("unexpected Temperature: %v", cfg.Temperature)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WORKSPACE_ROOT", "/tmp/workspace")
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("HEARTBEAT_INTERVAL", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("MAX_TOKENS", "")
	t.Setenv("TEMPERATURE", "")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.ServerAddr != ":8000" {
		t.Fatalf("unexpected ServerAddr: %q", cfg.ServerAddr)
	}
	if cfg.HeartbeatInterval != 15*time.Second {
		t.Fatalf("unexpected HeartbeatInterval: %v", cfg.HeartbeatInterval)
	}
	if cfg.RequestTimeout != 5*time.Minute {
		t.Fatalf("unexpected RequestTimeout: %v", cfg.RequestTimeout)
	}
	if cfg.MaxTokens != 4000 {
		t.Fatalf("unexpected MaxTokens: %d", cfg.MaxTokens)
	}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development environment by default")
	}
}

func TestLoadRequiresWorkspaceRoot(t *testing.T) {
	t.Setenv("WORKSPACE_ROOT", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing WORKSPACE_ROOT")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("WORKSPACE_ROOT", "/tmp/workspace")
	t.Setenv("HEARTBEAT_INTERVAL", "not-a-duration")
	t.Setenv("MAX_TOKENS", "-5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// Invalid values fall back to defaults.
	if cfg.HeartbeatInterval != 15*time.Second {
		t.Fatalf("unexpected HeartbeatInterval: %v", cfg.HeartbeatInterval)
	}
	if cfg.MaxTokens != 4000 {
		t.Fatalf("unexpected MaxTokens: %d", cfg.MaxTokens)
	}
}
