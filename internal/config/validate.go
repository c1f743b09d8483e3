package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.API.validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if err := c.Session.validate(); err != nil {
		return fmt.Errorf("session: %w", err)
	}

	if c.Session.Store == StorePostgres && strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required when session.store is %q", StorePostgres)
	}

	if c.Metrics.TextfilePath != "" && !c.Metrics.Enabled {
		return fmt.Errorf("metrics.textfile_path requires metrics.enabled")
	}

	return nil
}

func (a *APIConfig) validate() error {
	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http or https (got %q)", a.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url must include a host (got %q)", a.BaseURL)
	}
	a.BaseURL = strings.TrimRight(a.BaseURL, "/")

	if !strings.HasPrefix(a.AuthPrefix, "/") {
		return fmt.Errorf("auth_prefix must start with '/' (got %q)", a.AuthPrefix)
	}
	a.AuthPrefix = strings.TrimRight(a.AuthPrefix, "/")

	if a.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", a.Timeout)
	}

	switch a.LoginEncoding {
	case "json", "form":
	default:
		return fmt.Errorf("login_encoding must be json or form (got %q)", a.LoginEncoding)
	}

	if strings.TrimSpace(a.ImageField) == "" {
		return fmt.Errorf("image_field must not be empty")
	}

	return nil
}

func (s *SessionConfig) validate() error {
	switch s.Store {
	case StoreMemory, StorePostgres:
	case StoreFile:
		if s.FilePath == "" {
			path, err := DefaultTokenPath()
			if err != nil {
				return fmt.Errorf("file_path: %w", err)
			}
			s.FilePath = path
		}
	default:
		return fmt.Errorf("store must be one of memory, file, postgres (got %q)", s.Store)
	}

	if s.Passphrase != "" && len(s.Passphrase) < 8 {
		return fmt.Errorf("passphrase must be at least 8 characters (got %d)", len(s.Passphrase))
	}

	if strings.TrimSpace(s.Key) == "" {
		return fmt.Errorf("key must not be empty")
	}

	return nil
}

// DefaultTokenPath returns the per-user location of the token file.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "civic", "token"), nil
}

// Validate checks the settings civic-mock needs. It is not part of
// Config.Validate because the client never reads them.
func (m MockConfig) Validate() error {
	if m.Addr == "" {
		return fmt.Errorf("mock.addr must not be empty")
	}
	if len(m.JWTSecret) < 32 {
		return fmt.Errorf("mock.jwt_secret must be at least 32 characters (got %d)", len(m.JWTSecret))
	}
	if m.TokenTTL <= 0 {
		return fmt.Errorf("mock.token_ttl must be > 0 (got %v)", m.TokenTTL)
	}
	if !strings.HasPrefix(m.AuthPrefix, "/") {
		return fmt.Errorf("mock.auth_prefix must start with '/' (got %q)", m.AuthPrefix)
	}
	return nil
}
