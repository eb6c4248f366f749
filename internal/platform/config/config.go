package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers for the team store.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config is the full process configuration, read once in main.
type Config struct {
	Server   Server
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string        `env:"BINOQULE_ADDR"               envDefault:":8080"`
	AdminToken        string        `env:"BINOQULE_ADMIN_TOKEN"`
	ReadHeaderTimeout time.Duration `env:"BINOQULE_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"BINOQULE_SHUTDOWN_TIMEOUT"   envDefault:"10s"`
}

// DatabaseConfig selects and tunes the team store backend.
type DatabaseConfig struct {
	Driver          string        `env:"BINOQULE_DB_DRIVER"          envDefault:"sqlite"`
	URL             string        `env:"BINOQULE_DATABASE_URL"`
	SQLitePath      string        `env:"BINOQULE_SQLITE_PATH"        envDefault:"binoqule.db"`
	MaxOpenConns    int           `env:"BINOQULE_DB_MAX_OPEN_CONNS"  envDefault:"10"`
	MaxIdleConns    int           `env:"BINOQULE_DB_MAX_IDLE_CONNS"  envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"BINOQULE_DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// RedisConfig configures the optional Redis client. An empty URL disables
// Redis and the team order lock falls back to an in-process mutex.
type RedisConfig struct {
	URL          string        `env:"BINOQULE_REDIS_URL"`
	PoolSize     int           `env:"BINOQULE_REDIS_POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"BINOQULE_REDIS_MIN_IDLE_CONNS" envDefault:"1"`
	DialTimeout  time.Duration `env:"BINOQULE_REDIS_DIAL_TIMEOUT"   envDefault:"5s"`
	ReadTimeout  time.Duration `env:"BINOQULE_REDIS_READ_TIMEOUT"   envDefault:"3s"`
	WriteTimeout time.Duration `env:"BINOQULE_REDIS_WRITE_TIMEOUT"  envDefault:"3s"`
	LockTTL      time.Duration `env:"BINOQULE_LOCK_TTL"             envDefault:"15s"`
	LockRetry    time.Duration `env:"BINOQULE_LOCK_RETRY"           envDefault:"50ms"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `env:"BINOQULE_LOG_LEVEL"  envDefault:"info"`
	Format string `env:"BINOQULE_LOG_FORMAT" envDefault:"json"`
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that every binary needs.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("BINOQULE_DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("BINOQULE_SQLITE_PATH is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown BINOQULE_DB_DRIVER %q", c.Database.Driver)
	}
	if c.Redis.URL != "" && c.Redis.LockTTL <= 0 {
		return fmt.Errorf("BINOQULE_LOCK_TTL must be positive")
	}
	return nil
}

// ValidateServer adds the checks only the HTTP server needs.
func (c Config) ValidateServer() error {
	if c.Server.AdminToken == "" {
		return fmt.Errorf("BINOQULE_ADMIN_TOKEN is required")
	}
	return nil
}
