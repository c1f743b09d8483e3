package config

import (
	"time"
)

// Config is the root client configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Session  SessionConfig  `yaml:"session"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Mock     MockConfig     `yaml:"mock"`
}

// APIConfig describes how to reach the reporting backend.
type APIConfig struct {
	BaseURL       string        `yaml:"base_url"       env:"CIVIC_API_BASE_URL"       env-default:"http://localhost:8000"`
	AuthPrefix    string        `yaml:"auth_prefix"    env:"CIVIC_API_AUTH_PREFIX"    env-default:"/auth"`
	Timeout       time.Duration `yaml:"timeout"        env:"CIVIC_API_TIMEOUT"        env-default:"30s"`
	LoginEncoding string        `yaml:"login_encoding" env:"CIVIC_API_LOGIN_ENCODING" env-default:"json"`
	ImageField    string        `yaml:"image_field"    env:"CIVIC_API_IMAGE_FIELD"    env-default:"image"`
}

// Token store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// SessionConfig selects where the credential is persisted.
type SessionConfig struct {
	Store      string `yaml:"store"      env:"CIVIC_SESSION_STORE"      env-default:"file"`
	FilePath   string `yaml:"file_path"  env:"CIVIC_SESSION_FILE"`
	Passphrase string `yaml:"passphrase" env:"CIVIC_SESSION_PASSPHRASE"`
	Key        string `yaml:"key"        env:"CIVIC_SESSION_KEY"        env-default:"user_jwt"`
}

// DatabaseConfig holds PostgreSQL connection settings for the postgres token store.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"4"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"0"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	Migrate         bool          `yaml:"migrate"            env:"DATABASE_MIGRATE"            env-default:"true"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// MetricsConfig controls client-side request metrics.
// When TextfilePath is set, collected metrics are written there on exit in
// the Prometheus text exposition format.
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled"       env:"METRICS_ENABLED"       env-default:"false"`
	TextfilePath string `yaml:"textfile_path" env:"METRICS_TEXTFILE_PATH"`
}

// MockConfig configures the development backend served by civic-mock.
type MockConfig struct {
	Addr       string        `yaml:"addr"        env:"MOCK_ADDR"        env-default:":8000"`
	JWTSecret  string        `yaml:"jwt_secret"  env:"MOCK_JWT_SECRET"  env-default:"civic-mock-development-secret-0001"`
	TokenTTL   time.Duration `yaml:"token_ttl"   env:"MOCK_TOKEN_TTL"   env-default:"30m"`
	AuthPrefix string        `yaml:"auth_prefix" env:"MOCK_AUTH_PREFIX" env-default:"/auth"`
	// CORSOrigins lists browser origins allowed to call the mock; "*" allows any.
	CORSOrigins []string `yaml:"cors_origins" env:"MOCK_CORS_ORIGINS" env-separator:"," env-default:"*"`
	// Metrics exposes /metrics on the mock.
	Metrics bool `yaml:"metrics" env:"MOCK_METRICS" env-default:"true"`
}
