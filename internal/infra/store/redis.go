package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps values in redis under a key prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", cfg.Addr)
	}
	return &RedisStore{client: client, prefix: cfg.Prefix}, nil
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "redis get %q", key)
	}
	return v, nil
}

// Set stores value under key without expiration.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return errors.Wrapf(err, "redis set %q", key)
	}
	return nil
}

// Delete removes key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrapf(err, "redis del %q", key)
	}
	return nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
