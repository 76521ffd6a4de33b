package store

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	Path    string
	Redis   RedisConfig
}

// Open creates the store selected by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	zlog.Info().Msgf("store: opening backend=%s", cfg.Backend)

	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(cfg.Path)
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.Redis)
	default:
		return nil, errors.Newf("unknown store backend: %s", cfg.Backend)
	}
}
