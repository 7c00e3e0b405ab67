package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Session backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config gathers the settings of the CLI, the import tool and the mock API.
type Config struct {
	APIURL            string        `env:"BOOKTRACK_API_URL" envDefault:"https://backendbooktrack-production.up.railway.app/api"`
	HTTPTimeout       time.Duration `env:"BOOKTRACK_HTTP_TIMEOUT" envDefault:"0s"`
	SessionBackend    string        `env:"BOOKTRACK_SESSION_BACKEND" envDefault:"sqlite"`
	DBPath            string        `env:"BOOKTRACK_DB"`
	SessionPassphrase string        `env:"BOOKTRACK_SESSION_PASSPHRASE"`
	RedisAddr         string        `env:"BOOKTRACK_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword     string        `env:"BOOKTRACK_REDIS_PASSWORD"`
	RedisDB           int           `env:"BOOKTRACK_REDIS_DB" envDefault:"0"`
	LogLevel          string        `env:"BOOKTRACK_LOG_LEVEL" envDefault:"warn"`

	MockAddr      string `env:"BOOKTRACK_MOCK_ADDR" envDefault:":8080"`
	MockJWTSecret string `env:"BOOKTRACK_MOCK_JWT_SECRET" envDefault:"dev-secret-change-me"`
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that flags may have overridden after Parse.
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown session backend %q (want sqlite, redis or memory)", c.SessionBackend)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout must not be negative")
	}
	return nil
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "booktrack.db"
	}
	return filepath.Join(dir, "booktrack", "session.db")
}

// NewLogger builds a JSON logger on stderr at the given level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}
