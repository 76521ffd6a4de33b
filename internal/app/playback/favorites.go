package playback

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/domain/user"
)

// ReloadFavorites loads the liked tracks and followed artists of the
// signed-in user, or clears them when nobody is signed in.
func (c *Controller) ReloadFavorites(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	u := c.currentUser()
	if u == nil {
		c.favoritesOwner = ""
		c.liked = nil
		c.followed = nil
		c.sendEventLocked(EventFavoritesChanged, nil, "")
		return nil
	}
	if err := c.loadFavoritesLocked(ctx, u.ID); err != nil {
		return err
	}
	c.sendEventLocked(EventFavoritesChanged, nil, "")
	return nil
}

// IsLiked reports whether the signed-in user likes the track.
// Always false while signed out.
func (c *Controller) IsLiked(trackID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.ownsFavoritesLocked() {
		return false
	}
	return slices.Contains(c.liked, trackID)
}

// LikedTrackIDs returns the liked track ids in like order.
func (c *Controller) LikedTrackIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.ownsFavoritesLocked() {
		return []string{}
	}
	return slices.Clone(c.liked)
}

// ToggleLike flips the like on a track and returns the new membership.
func (c *Controller) ToggleLike(t track.Track) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, err := c.requireUserLocked()
	if err != nil {
		return false, err
	}

	prev := slices.Clone(c.liked)
	liked := !slices.Contains(c.liked, t.ID)
	if liked {
		c.liked = append(c.liked, t.ID)
	} else {
		c.liked = slices.DeleteFunc(c.liked, func(id string) bool { return id == t.ID })
	}

	if c.collab.Favorites != nil {
		if err := c.collab.Favorites.SaveLiked(c.ctx, u.ID, c.liked); err != nil {
			c.liked = prev
			return !liked, errors.Wrap(err, "failed to persist liked tracks")
		}
	}

	zlog.Debug().Msgf("playback: like toggled: user=%s track=%s liked=%v", u.ID, t.ID, liked)
	c.sendEventLocked(EventFavoritesChanged, &t, "")
	return liked, nil
}

// IsFollowing reports whether the signed-in user follows the artist.
func (c *Controller) IsFollowing(artistID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.ownsFavoritesLocked() {
		return false
	}
	return slices.Contains(c.followed, artistID)
}

// FollowedArtistIDs returns the followed artist ids in follow order.
func (c *Controller) FollowedArtistIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.ownsFavoritesLocked() {
		return []string{}
	}
	return slices.Clone(c.followed)
}

// FollowArtist follows an artist. Returns false if it was already followed.
func (c *Controller) FollowArtist(artistID string) (bool, error) {
	return c.setFollowing(artistID, true)
}

// UnfollowArtist unfollows an artist. Returns false if it was not followed.
func (c *Controller) UnfollowArtist(artistID string) (bool, error) {
	return c.setFollowing(artistID, false)
}

func (c *Controller) setFollowing(artistID string, follow bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, err := c.requireUserLocked()
	if err != nil {
		return false, err
	}
	if slices.Contains(c.followed, artistID) == follow {
		return false, nil
	}

	prev := slices.Clone(c.followed)
	if follow {
		c.followed = append(c.followed, artistID)
	} else {
		c.followed = slices.DeleteFunc(c.followed, func(id string) bool { return id == artistID })
	}

	if c.collab.Favorites != nil {
		if err := c.collab.Favorites.SaveFollowed(c.ctx, u.ID, c.followed); err != nil {
			c.followed = prev
			return false, errors.Wrap(err, "failed to persist followed artists")
		}
	}

	zlog.Debug().Msgf("playback: follow changed: user=%s artist=%s following=%v", u.ID, artistID, follow)
	c.sendEventLocked(EventFavoritesChanged, nil, "")
	return true, nil
}

// requireUserLocked returns the signed-in user with favorites loaded.
// Signed-out callers get ErrAuthRequired and an EventAuthRequired.
func (c *Controller) requireUserLocked() (*user.User, error) {
	u := c.currentUser()
	if u == nil {
		c.sendEventLocked(EventAuthRequired, nil, "sign in to like songs and follow artists")
		return nil, ErrAuthRequired
	}
	if c.favoritesOwner != u.ID {
		if err := c.loadFavoritesLocked(c.ctx, u.ID); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (c *Controller) loadFavoritesLocked(ctx context.Context, userID string) error {
	var liked, followed []string
	if c.collab.Favorites != nil {
		var err error
		liked, followed, err = c.collab.Favorites.LoadFavorites(ctx, userID)
		if err != nil {
			return errors.Wrapf(err, "failed to load favorites for %s", userID)
		}
	}
	c.favoritesOwner = userID
	c.liked = liked
	c.followed = followed
	return nil
}

// ownsFavoritesLocked reports whether the loaded sets belong to the signed-in user.
func (c *Controller) ownsFavoritesLocked() bool {
	u := c.currentUser()
	return u != nil && u.ID == c.favoritesOwner
}

func (c *Controller) currentUser() *user.User {
	if c.collab.Auth == nil {
		return nil
	}
	return c.collab.Auth.CurrentUser()
}
