package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grana.yaml")
	content := `
database:
  path: /var/lib/grana/grana.db
matrix:
  homeserver: https://matrix.example.com
  user_id: "@grana:example.com"
  access_token: syt_secret
  rooms:
    - "!finance:example.com"
  allowed_senders:
    - "@rafael:example.com"
chat:
  confirm_ttl: 2m
  strict_tokens: true
  rate_limit: 10
http_addr: ":8080"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Database.Path != "/var/lib/grana/grana.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Matrix.UserID != "@grana:example.com" {
		t.Errorf("user id = %q", cfg.Matrix.UserID)
	}
	if len(cfg.Matrix.Rooms) != 1 || cfg.Matrix.Rooms[0] != "!finance:example.com" {
		t.Errorf("rooms = %v", cfg.Matrix.Rooms)
	}
	if !cfg.Chat.StrictTokens {
		t.Error("strict_tokens not loaded")
	}
	if got := cfg.ConfirmTTL(); got != 2*time.Minute {
		t.Errorf("ConfirmTTL() = %v, want 2m", got)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("http_addr = %q", cfg.HTTPAddr)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grana.yaml")
	content := `
matrix:
  homeserver: https://file.example.com
  user_id: "@file:example.com"
  access_token: file_token
  rooms: ["!file:example.com"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MATRIX_HOMESERVER", "https://env.example.com")
	t.Setenv("MATRIX_ROOMS", "!a:example.com, !b:example.com")
	t.Setenv("GRANA_CONFIRM_TTL", "90s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Matrix.Homeserver != "https://env.example.com" {
		t.Errorf("homeserver = %q, want the env value", cfg.Matrix.Homeserver)
	}
	if cfg.Matrix.UserID != "@file:example.com" {
		t.Errorf("user id = %q, want the file value preserved", cfg.Matrix.UserID)
	}
	if len(cfg.Matrix.Rooms) != 2 || cfg.Matrix.Rooms[1] != "!b:example.com" {
		t.Errorf("rooms = %v", cfg.Matrix.Rooms)
	}
	if got := cfg.ConfirmTTL(); got != 90*time.Second {
		t.Errorf("ConfirmTTL() = %v, want 90s", got)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("GRANA_CONFIG", "")
	t.Setenv("MATRIX_HOMESERVER", "https://env.example.com")
	t.Setenv("MATRIX_USER_ID", "@grana:example.com")
	t.Setenv("MATRIX_ACCESS_TOKEN", "syt_env")
	t.Setenv("MATRIX_ROOMS", "!finance:example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Database.Path != DefaultDatabasePath {
		t.Errorf("database path = %q, want default", cfg.Database.Path)
	}
	if got := cfg.ConfirmTTL(); got != DefaultConfirmTTL {
		t.Errorf("ConfirmTTL() = %v, want default", got)
	}
	if got := cfg.SweepInterval(); got != DefaultSweepInterval {
		t.Errorf("SweepInterval() = %v, want default", got)
	}
}

func TestValidateErrors(t *testing.T) {
	base := func() *Config {
		return &Config{
			Matrix: MatrixConfig{
				Homeserver:  "https://matrix.example.com",
				UserID:      "@grana:example.com",
				AccessToken: "syt_x",
				Rooms:       []string{"!r:example.com"},
			},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	mutations := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing homeserver", func(c *Config) { c.Matrix.Homeserver = "" }},
		{"missing user id", func(c *Config) { c.Matrix.UserID = "" }},
		{"missing token", func(c *Config) { c.Matrix.AccessToken = "" }},
		{"no rooms", func(c *Config) { c.Matrix.Rooms = nil }},
		{"bad confirm ttl", func(c *Config) { c.Chat.ConfirmTTL = "soon" }},
		{"bad sweep interval", func(c *Config) { c.Chat.SweepInterval = "often" }},
		{"negative rate limit", func(c *Config) { c.Chat.RateLimit = -1 }},
	}
	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
