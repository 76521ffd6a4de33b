// Package library manages what a signed-in listener keeps: liked tracks,
// followed artists and playlists.
package library

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/domain/playlist"
	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/domain/user"
	"github.com/osa030/vibeflow/internal/infra/store"
)

const (
	playlistsKey = "playlists"

	// RecentlyPlayedLimit caps the recently played playlist.
	RecentlyPlayedLimit = 50
)

// Errors
var (
	ErrAuthRequired      = errors.New("sign in required")
	ErrPlaylistNotFound  = errors.New("playlist not found")
	ErrAlreadyInPlaylist = errors.New("track already in playlist")
	ErrTrackNotFound     = errors.New("track not in playlist")
	ErrDefaultPlaylist   = errors.New("default playlists cannot be deleted")
	ErrEmptyName         = errors.New("playlist name is required")
)

// AuthProvider exposes the signed-in user, nil when signed out.
type AuthProvider interface {
	CurrentUser() *user.User
}

// Library holds the playlists of the signed-in user.
type Library struct {
	mu    sync.Mutex
	store store.Store
	auth  AuthProvider
	now   func() time.Time
}

// NewLibrary creates a library.
func NewLibrary(st store.Store, auth AuthProvider) *Library {
	return &Library{
		store: st,
		auth:  auth,
		now:   time.Now,
	}
}

// Playlists returns the playlists of the signed-in user, creating the
// default ones on first access.
func (l *Library) Playlists(ctx context.Context) ([]playlist.Playlist, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, err := l.requireUser()
	if err != nil {
		return nil, err
	}
	return l.loadLocked(ctx, u.ID)
}

// GetPlaylist returns one playlist by id.
func (l *Library) GetPlaylist(ctx context.Context, id string) (*playlist.Playlist, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, err := l.requireUser()
	if err != nil {
		return nil, err
	}
	lists, err := l.loadLocked(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	i := indexOf(lists, id)
	if i < 0 {
		return nil, errors.Wrapf(ErrPlaylistNotFound, "%q", id)
	}
	p := lists[i]
	return &p, nil
}

// CreatePlaylist creates an empty playlist.
func (l *Library) CreatePlaylist(ctx context.Context, name, description string) (*playlist.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	var created playlist.Playlist
	err := l.mutate(ctx, func(lists []playlist.Playlist) ([]playlist.Playlist, error) {
		now := l.now()
		created = playlist.Playlist{
			ID:          "playlist_" + uuid.New().String(),
			Name:        name,
			Description: description,
			Tracks:      []track.Track{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return append(lists, created), nil
	})
	if err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("library: created playlist id=%s name=%q", created.ID, created.Name)
	return &created, nil
}

// AddToPlaylist appends a track to a playlist.
func (l *Library) AddToPlaylist(ctx context.Context, playlistID string, t track.Track) error {
	return l.mutatePlaylist(ctx, playlistID, func(p *playlist.Playlist) error {
		if !p.Add(t, l.now()) {
			return errors.Wrapf(ErrAlreadyInPlaylist, "track %s", t.ID)
		}
		return nil
	})
}

// RemoveFromPlaylist removes a track from a playlist.
func (l *Library) RemoveFromPlaylist(ctx context.Context, playlistID, trackID string) error {
	return l.mutatePlaylist(ctx, playlistID, func(p *playlist.Playlist) error {
		if !p.Remove(trackID, l.now()) {
			return errors.Wrapf(ErrTrackNotFound, "track %s", trackID)
		}
		return nil
	})
}

// RenamePlaylist changes the name of a playlist.
func (l *Library) RenamePlaylist(ctx context.Context, playlistID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	return l.mutatePlaylist(ctx, playlistID, func(p *playlist.Playlist) error {
		p.Name = name
		p.UpdatedAt = l.now()
		return nil
	})
}

// UpdateDescription changes the description of a playlist.
func (l *Library) UpdateDescription(ctx context.Context, playlistID, description string) error {
	return l.mutatePlaylist(ctx, playlistID, func(p *playlist.Playlist) error {
		p.Description = description
		p.UpdatedAt = l.now()
		return nil
	})
}

// DeletePlaylist removes a user playlist. Default playlists are kept.
func (l *Library) DeletePlaylist(ctx context.Context, playlistID string) error {
	return l.mutate(ctx, func(lists []playlist.Playlist) ([]playlist.Playlist, error) {
		i := indexOf(lists, playlistID)
		if i < 0 {
			return nil, errors.Wrapf(ErrPlaylistNotFound, "%q", playlistID)
		}
		if lists[i].IsDefault() {
			return nil, ErrDefaultPlaylist
		}
		return append(lists[:i], lists[i+1:]...), nil
	})
}

// RecordRecentlyPlayed moves a track to the end of the recently played
// playlist, dropping the oldest entries above RecentlyPlayedLimit.
func (l *Library) RecordRecentlyPlayed(ctx context.Context, t track.Track) error {
	return l.mutatePlaylist(ctx, playlist.RecentlyPlayedID, func(p *playlist.Playlist) error {
		now := l.now()
		p.Remove(t.ID, now)
		p.Add(t, now)
		if over := len(p.Tracks) - RecentlyPlayedLimit; over > 0 {
			p.Tracks = p.Tracks[over:]
		}
		return nil
	})
}

// IsTrackInPlaylist reports whether a track is in a playlist.
// Signed-out callers and unknown playlists get false.
func (l *Library) IsTrackInPlaylist(ctx context.Context, playlistID, trackID string) bool {
	p, err := l.GetPlaylist(ctx, playlistID)
	if err != nil {
		return false
	}
	return p.Contains(trackID)
}

// LikedSongs resolves liked ids against known tracks, keeping like order.
// Ids with no known track are skipped.
func LikedSongs(liked []string, known []track.Track) []track.Track {
	byID := make(map[string]track.Track, len(known))
	for _, t := range known {
		byID[t.ID] = t
	}
	result := make([]track.Track, 0, len(liked))
	for _, id := range liked {
		if t, ok := byID[id]; ok {
			result = append(result, t)
		}
	}
	return result
}

func (l *Library) mutatePlaylist(ctx context.Context, playlistID string, fn func(p *playlist.Playlist) error) error {
	return l.mutate(ctx, func(lists []playlist.Playlist) ([]playlist.Playlist, error) {
		i := indexOf(lists, playlistID)
		if i < 0 {
			return nil, errors.Wrapf(ErrPlaylistNotFound, "%q", playlistID)
		}
		if err := fn(&lists[i]); err != nil {
			return nil, err
		}
		return lists, nil
	})
}

// mutate loads the playlists of the signed-in user, applies fn and saves the result.
func (l *Library) mutate(ctx context.Context, fn func([]playlist.Playlist) ([]playlist.Playlist, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, err := l.requireUser()
	if err != nil {
		return err
	}
	lists, err := l.loadLocked(ctx, u.ID)
	if err != nil {
		return err
	}
	lists, err = fn(lists)
	if err != nil {
		return err
	}
	return l.saveLocked(ctx, u.ID, lists)
}

func (l *Library) loadLocked(ctx context.Context, userID string) ([]playlist.Playlist, error) {
	var lists []playlist.Playlist
	err := store.GetJSON(ctx, l.store, store.UserKey(userID, playlistsKey), &lists)
	if errors.Is(err, store.ErrNotFound) {
		lists = l.defaultPlaylists()
		if err := l.saveLocked(ctx, userID, lists); err != nil {
			return nil, err
		}
		return lists, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load playlists")
	}
	return lists, nil
}

func (l *Library) saveLocked(ctx context.Context, userID string, lists []playlist.Playlist) error {
	if err := store.SetJSON(ctx, l.store, store.UserKey(userID, playlistsKey), lists); err != nil {
		return errors.Wrap(err, "failed to save playlists")
	}
	return nil
}

func (l *Library) defaultPlaylists() []playlist.Playlist {
	now := l.now()
	return []playlist.Playlist{
		{
			ID:          playlist.FavoritesID,
			Name:        "Favorites",
			Description: "Your favorite tracks",
			Tracks:      []track.Track{},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          playlist.RecentlyPlayedID,
			Name:        "Recently Played",
			Description: "Tracks you've listened to recently",
			Tracks:      []track.Track{},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func (l *Library) requireUser() (*user.User, error) {
	if l.auth == nil {
		return nil, ErrAuthRequired
	}
	u := l.auth.CurrentUser()
	if u == nil {
		return nil, ErrAuthRequired
	}
	return u, nil
}

func indexOf(lists []playlist.Playlist, id string) int {
	for i, p := range lists {
		if p.ID == id {
			return i
		}
	}
	return -1
}
