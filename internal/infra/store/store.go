// Package store provides the key-value persistence port used for preferences,
// favorites, playlists, listening stats and the signed-in user.
package store

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// Store is a synchronous key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON reads key and decodes it into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "failed to decode %q", key)
	}
	return nil
}

// SetJSON encodes v and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %q", key)
	}
	return s.Set(ctx, key, data)
}

// UserKey builds a per-user key such as "users/<id>/liked".
func UserKey(userID, name string) string {
	return "users/" + userID + "/" + name
}
