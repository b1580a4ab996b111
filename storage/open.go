package storage

import (
	"context"
	"fmt"
	"strings"

	"estate_admin/config"
)

// Open connects to the backend named by cfg.Backend.
func Open(ctx context.Context, cfg *config.Config) (KV, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteKV(cfg.DBPath)
	case "postgres":
		return NewPostgresKV(ctx, cfg.PostgresURL)
	case "redis":
		return NewRedisKV(ctx, &cfg.Redis)
	case "memory":
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Describe returns a loggable location for the configured backend with any
// password masked.
func Describe(cfg *config.Config) string {
	switch cfg.Backend {
	case "sqlite":
		return "sqlite:" + cfg.DBPath
	case "postgres":
		return maskConnectionString(cfg.PostgresURL)
	case "redis":
		return "redis://" + cfg.Redis.Addr
	default:
		return cfg.Backend
	}
}

// maskConnectionString masks the password in a URL style connection string
func maskConnectionString(connStr string) string {
	start := strings.Index(connStr, "://")
	if start < 0 {
		return connStr
	}
	start += 3

	at := strings.Index(connStr[start:], "@")
	if at < 0 {
		return connStr
	}
	at += start

	colon := strings.Index(connStr[start:at], ":")
	if colon < 0 {
		return connStr
	}
	colon += start

	return connStr[:colon+1] + "****" + connStr[at:]
}
