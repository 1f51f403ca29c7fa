package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/saulo-duarte/engmcq-web/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("FileAndEnvOverride", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		content := `
server:
  port: "9090"
backend:
  base_url: "http://backend:8000"
  legacy_user_header: false
redis:
  addr: "localhost:6379"
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		t.Setenv("BACKEND_API_URL", "http://override:8000")

		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Server.Port != "9090" {
			t.Errorf("expected port 9090, got %s", cfg.Server.Port)
		}
		if cfg.Backend.BaseURL != "http://override:8000" {
			t.Errorf("expected env override for backend url, got %s", cfg.Backend.BaseURL)
		}
		if *cfg.Backend.LegacyUserHeader {
			t.Errorf("expected legacy header disabled by file")
		}
		if cfg.Store.Driver != config.StoreRedis {
			t.Errorf("expected redis store inferred from redis addr, got %s", cfg.Store.Driver)
		}
		if !strings.HasSuffix(cfg.Auth.GoogleRedirectURL, "/api/auth/callback/google") {
			t.Errorf("unexpected default redirect url %s", cfg.Auth.GoogleRedirectURL)
		}
	})

	t.Run("MissingFileUsesDefaults", func(t *testing.T) {
		cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cfg.Store.Driver != config.StoreMemory {
			t.Errorf("expected memory store, got %s", cfg.Store.Driver)
		}
		if !*cfg.Backend.LegacyUserHeader {
			t.Errorf("expected legacy user header enabled by default")
		}
	})
}

func TestValidate(t *testing.T) {
	cfg, _ := config.Load("")
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for empty secrets")
	}

	cfg.Auth.GoogleClientID = "client"
	cfg.Auth.GoogleClientSecret = "secret"
	cfg.Auth.SessionSecret = strings.Repeat("s", 32)
	cfg.Auth.CryptoKey = testKey
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cfg.Store.Driver = "cassandra"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown store driver")
	}
}

func TestTTLDuration(t *testing.T) {
	if d := config.TTLDuration("", time.Minute); d != time.Minute {
		t.Errorf("expected fallback, got %v", d)
	}
	if d := config.TTLDuration("90s", time.Minute); d != 90*time.Second {
		t.Errorf("expected 90s, got %v", d)
	}
	if d := config.TTLDuration("soon", time.Minute); d != time.Minute {
		t.Errorf("expected fallback for garbage, got %v", d)
	}
}
