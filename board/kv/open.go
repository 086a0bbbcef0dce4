package kv

import (
	"context"
	"fmt"
	"io"
	"strings"
)

const (
	DriverNone     = "none"
	DriverLocal    = "local"
	DriverRedis    = "redis"
	DriverUpstash  = "upstash"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config selects and configures the medium. Loaded with prefix "KV".
type Config struct {
	Driver   string         `envconfig:"DRIVER" default:"sqlite"`
	SQLite   SQLiteConfig   `envconfig:"SQLITE"`
	Redis    RedisConfig    `envconfig:"REDIS"`
	Upstash  UpstashConfig  `envconfig:"UPSTASH"`
	Postgres PostgresConfig `envconfig:"POSTGRES"`
}

// Durable reports whether writes outlive the process. False for local and none.
func (c Config) Durable() bool {
	switch normalizeDriver(c.Driver) {
	case DriverLocal, DriverNone:
		return false
	default:
		return true
	}
}

func normalizeDriver(driver string) string {
	d := strings.ToLower(strings.TrimSpace(driver))
	if d == "" {
		return DriverSQLite
	}
	return d
}

// Open builds the configured medium. The returned closer is never nil.
func Open(ctx context.Context, cfg Config) (Store, io.Closer, error) {
	switch normalizeDriver(cfg.Driver) {
	case DriverNone:
		return Unavailable{}, nopCloser{}, nil
	case DriverLocal:
		return NewLocalStore(), nopCloser{}, nil
	case DriverSQLite:
		s, err := NewSQLiteStore(ctx, cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case DriverRedis:
		s, err := NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case DriverUpstash:
		s, err := NewUpstashStore(cfg.Upstash)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case DriverPostgres:
		s, err := NewPostgresStore(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unsupported kv driver %q", cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
