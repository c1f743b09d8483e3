package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
api:
  base_url: "http://10.0.2.2:8000/"
  auth_prefix: "/api/auth/"
  timeout: "5s"
  login_encoding: "form"
  image_field: "file"

session:
  store: "postgres"
  key: "user_jwt"

database:
  dsn: "postgres://u:p@localhost:5432/testdb"
  max_conns: 2

log:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  textfile_path: "/tmp/civic.prom"

mock:
  addr: ":9000"
  token_ttl: "1h"
`

func TestLoad_ValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// API
	if cfg.API.BaseURL != "http://10.0.2.2:8000" {
		t.Errorf("api.base_url = %q, want trailing slash trimmed", cfg.API.BaseURL)
	}
	if cfg.API.AuthPrefix != "/api/auth" {
		t.Errorf("api.auth_prefix = %q, want %q", cfg.API.AuthPrefix, "/api/auth")
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("api.timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.API.LoginEncoding != "form" {
		t.Errorf("api.login_encoding = %q, want form", cfg.API.LoginEncoding)
	}
	if cfg.API.ImageField != "file" {
		t.Errorf("api.image_field = %q, want file", cfg.API.ImageField)
	}

	// Session
	if cfg.Session.Store != StorePostgres {
		t.Errorf("session.store = %q, want postgres", cfg.Session.Store)
	}

	// Database
	if cfg.Database.MaxConns != 2 {
		t.Errorf("database.max_conns = %d, want 2", cfg.Database.MaxConns)
	}
	if !cfg.Database.Migrate {
		t.Error("database.migrate should default to true")
	}

	// Log
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log.format = %q, want json", cfg.Log.Format)
	}

	// Metrics
	if !cfg.Metrics.Enabled || cfg.Metrics.TextfilePath != "/tmp/civic.prom" {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}

	// Mock
	if cfg.Mock.Addr != ":9000" {
		t.Errorf("mock.addr = %q, want :9000", cfg.Mock.Addr)
	}
	if cfg.Mock.TokenTTL != time.Hour {
		t.Errorf("mock.token_ttl = %v, want 1h", cfg.Mock.TokenTTL)
	}
	if cfg.Mock.AuthPrefix != "/auth" {
		t.Errorf("mock.auth_prefix = %q, want default /auth", cfg.Mock.AuthPrefix)
	}
}

func TestLoad_ENVOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeYAML(t, dir, validYAML)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("CIVIC_API_BASE_URL", "https://civic.example.org")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "https://civic.example.org" {
		t.Errorf("api.base_url = %q (ENV override)", cfg.API.BaseURL)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want %q (ENV override)", cfg.Log.Level, "warn")
	}
}

func TestLoad_NoFile_ENVOnly(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("CIVIC_SESSION_STORE", "memory")

	origDir, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	_ = os.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("api.base_url = %q, want default", cfg.API.BaseURL)
	}
	if cfg.API.AuthPrefix != "/auth" {
		t.Errorf("api.auth_prefix = %q, want /auth", cfg.API.AuthPrefix)
	}
	if cfg.API.ImageField != "image" {
		t.Errorf("api.image_field = %q, want image", cfg.API.ImageField)
	}
	if cfg.API.LoginEncoding != "json" {
		t.Errorf("api.login_encoding = %q, want json", cfg.API.LoginEncoding)
	}
	if cfg.Session.Key != "user_jwt" {
		t.Errorf("session.key = %q, want user_jwt", cfg.Session.Key)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("api.timeout = %v, want 30s", cfg.API.Timeout)
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CIVIC_TEST_DOTENV=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("CIVIC_TEST_DOTENV", "")
	os.Unsetenv("CIVIC_TEST_DOTENV")

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("CIVIC_TEST_DOTENV"); got != "from-file" {
		t.Errorf("CIVIC_TEST_DOTENV = %q, want from-file", got)
	}
}

func validConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:       "http://localhost:8000",
			AuthPrefix:    "/auth",
			Timeout:       time.Second,
			LoginEncoding: "json",
			ImageField:    "image",
		},
		Session: SessionConfig{Store: StoreMemory, Key: "user_jwt"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://host" }, "base_url must be http or https"},
		{"no host", func(c *Config) { c.API.BaseURL = "http://" }, "base_url must include a host"},
		{"auth prefix", func(c *Config) { c.API.AuthPrefix = "auth" }, "auth_prefix must start with '/'"},
		{"timeout", func(c *Config) { c.API.Timeout = 0 }, "timeout must be > 0"},
		{"login encoding", func(c *Config) { c.API.LoginEncoding = "xml" }, "login_encoding must be json or form"},
		{"image field", func(c *Config) { c.API.ImageField = " " }, "image_field must not be empty"},
		{"store", func(c *Config) { c.Session.Store = "redis" }, "store must be one of"},
		{"short passphrase", func(c *Config) { c.Session.Passphrase = "short" }, "passphrase must be at least 8"},
		{"empty key", func(c *Config) { c.Session.Key = "" }, "key must not be empty"},
		{"postgres without dsn", func(c *Config) { c.Session.Store = StorePostgres }, "database.dsn is required"},
		{"textfile without metrics", func(c *Config) { c.Metrics.TextfilePath = "/tmp/x.prom" }, "requires metrics.enabled"},
		{"file store with path", func(c *Config) {
			c.Session.Store = StoreFile
			c.Session.FilePath = "/tmp/civic-token"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMockConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := MockConfig{
		Addr:       ":8000",
		JWTSecret:  strings.Repeat("s", 32),
		TokenTTL:   time.Minute,
		AuthPrefix: "/auth",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	short := valid
	short.JWTSecret = "short"
	if err := short.Validate(); err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Fatalf("expected jwt_secret error, got %v", err)
	}

	prefix := valid
	prefix.AuthPrefix = "auth"
	if err := prefix.Validate(); err == nil {
		t.Fatal("expected auth_prefix error")
	}
}
