package library

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/vibeflow/internal/infra/store"
)

const (
	likedKey    = "liked"
	followedKey = "followed"
)

// Favorites persists liked track ids and followed artist ids per user.
type Favorites struct {
	store store.Store
}

// NewFavorites creates a favorites store.
func NewFavorites(st store.Store) *Favorites {
	return &Favorites{store: st}
}

// LoadFavorites returns the liked tracks and followed artists of a user.
// A user with nothing stored gets empty lists.
func (f *Favorites) LoadFavorites(ctx context.Context, userID string) ([]string, []string, error) {
	liked, err := f.loadIDs(ctx, store.UserKey(userID, likedKey))
	if err != nil {
		return nil, nil, err
	}
	followed, err := f.loadIDs(ctx, store.UserKey(userID, followedKey))
	if err != nil {
		return nil, nil, err
	}
	return liked, followed, nil
}

// SaveLiked replaces the liked track ids of a user.
func (f *Favorites) SaveLiked(ctx context.Context, userID string, trackIDs []string) error {
	return f.saveIDs(ctx, store.UserKey(userID, likedKey), trackIDs)
}

// SaveFollowed replaces the followed artist ids of a user.
func (f *Favorites) SaveFollowed(ctx context.Context, userID string, artistIDs []string) error {
	return f.saveIDs(ctx, store.UserKey(userID, followedKey), artistIDs)
}

func (f *Favorites) loadIDs(ctx context.Context, key string) ([]string, error) {
	ids := []string{}
	err := store.GetJSON(ctx, f.store, key, &ids)
	if errors.Is(err, store.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (f *Favorites) saveIDs(ctx context.Context, key string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return store.SetJSON(ctx, f.store, key, ids)
}
