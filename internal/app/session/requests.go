package session

import (
	"context"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/app/filter"
	"github.com/osa030/vibeflow/internal/app/library"
	"github.com/osa030/vibeflow/internal/app/stats"
	"github.com/osa030/vibeflow/internal/domain/playlist"
	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/infra/spotify"
)

// ResolveTrack finds a track by id: the tracks the session already knows
// first, then Spotify for Spotify ids, URIs and URLs.
func (m *Manager) ResolveTrack(ctx context.Context, ref string) (track.Track, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return track.Track{}, errors.Wrap(ErrTrackNotFound, "empty track id")
	}

	m.mu.RLock()
	t, ok := m.known.Lookup(ref)
	m.mu.RUnlock()
	if ok {
		return t, nil
	}

	if m.spotify == nil || !spotify.IsSpotifyRef(ref) {
		return track.Track{}, errors.Wrapf(ErrTrackNotFound, "%q", ref)
	}

	found, err := m.spotify.GetTrack(ctx, ref)
	if err != nil {
		zlog.Warn().Msgf("session: spotify lookup failed: ref=%s: %v", ref, err)
		return track.Track{}, errors.Wrapf(ErrTrackNotFound, "%q", ref)
	}
	m.remember(*found)
	return *found, nil
}

// AddToQueue resolves a track reference, runs the admission filters and
// appends the track to the queue.
func (m *Manager) AddToQueue(ctx context.Context, ref string) (track.Track, error) {
	if !m.stateMgr.IsActive() {
		return track.Track{}, ErrSessionNotActive
	}

	t, err := m.ResolveTrack(ctx, ref)
	if err != nil {
		zlog.Warn().Msgf("track request rejected: ref=%s code=track_not_found", ref)
		return track.Track{}, err
	}
	if err := m.admit(ctx, t, filter.SourceUser); err != nil {
		return track.Track{}, err
	}
	if err := m.player.AddToQueue(t); err != nil {
		return track.Track{}, err
	}

	zlog.Info().Msgf("track request: track=%s title=%q accepted", t.ID, t.Title)
	return t, nil
}

// ImportSpotifyPlaylist appends the tracks of a Spotify playlist to the queue.
// Tracks refused by the admission filters or already queued are skipped.
// It returns the number of tracks added.
func (m *Manager) ImportSpotifyPlaylist(ctx context.Context, playlistURL string) (int, error) {
	if !m.stateMgr.IsActive() {
		return 0, ErrSessionNotActive
	}
	if m.spotify == nil {
		return 0, ErrSpotifyDisabled
	}

	m.stateMgr.StartImport(playlistURL)
	tracks, err := m.spotify.GetPlaylistTracks(ctx, playlistURL)
	if err != nil {
		m.stateMgr.FinishImport(0, err)
		return 0, errors.Wrap(err, "failed to load playlist")
	}

	added := 0
	for _, t := range tracks {
		m.remember(t)
		if err := m.admit(ctx, t, filter.SourceImport); err != nil {
			zlog.Debug().Msgf("session: import skipped track=%s: %v", t.ID, err)
			continue
		}
		if err := m.player.AddToQueue(t); err != nil {
			zlog.Debug().Msgf("session: import skipped track=%s: %v", t.ID, err)
			continue
		}
		added++
	}

	m.stateMgr.FinishImport(added, nil)
	zlog.Info().Msgf("loaded spotify playlist: url=%s fetched=%d added=%d", playlistURL, len(tracks), added)
	return added, nil
}

// SearchSpotify searches Spotify for tracks. Results become resolvable by id.
func (m *Manager) SearchSpotify(ctx context.Context, query string, limit int) ([]track.Track, error) {
	if m.spotify == nil {
		return nil, ErrSpotifyDisabled
	}
	tracks, err := m.spotify.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	for _, t := range tracks {
		m.remember(t)
	}
	return tracks, nil
}

// ToggleLike likes or unlikes a track and mirrors the change into the
// favorites playlist. It returns the new liked state.
func (m *Manager) ToggleLike(ctx context.Context, ref string) (bool, error) {
	t, err := m.ResolveTrack(ctx, ref)
	if err != nil {
		return false, err
	}
	liked, err := m.player.ToggleLike(t)
	if err != nil {
		return false, err
	}

	switch inFavorites := m.library.IsTrackInPlaylist(ctx, playlist.FavoritesID, t.ID); {
	case liked && !inFavorites:
		err = m.library.AddToPlaylist(ctx, playlist.FavoritesID, t)
	case !liked && inFavorites:
		err = m.library.RemoveFromPlaylist(ctx, playlist.FavoritesID, t.ID)
	}
	if err != nil {
		zlog.Error().Msgf("session: failed to sync favorites playlist: %v", err)
	}
	return liked, nil
}

// LikedSongs returns the liked tracks the session can resolve, in like order.
func (m *Manager) LikedSongs() []track.Track {
	m.mu.RLock()
	known := make([]track.Track, 0, len(m.known))
	for _, t := range m.known {
		known = append(known, t)
	}
	m.mu.RUnlock()
	return library.LikedSongs(m.player.LikedTrackIDs(), known)
}

// AddToPlaylist resolves a track reference and adds it to a playlist.
func (m *Manager) AddToPlaylist(ctx context.Context, playlistID, ref string) (track.Track, error) {
	t, err := m.ResolveTrack(ctx, ref)
	if err != nil {
		return track.Track{}, err
	}
	if err := m.library.AddToPlaylist(ctx, playlistID, t); err != nil {
		return track.Track{}, err
	}
	return t, nil
}

// QueuePlaylist appends the tracks of a saved playlist to the queue.
// Queuing a playlist counts as the user adding each track, so the same
// admission filters run; refused or already queued tracks are skipped.
// It returns the number of tracks added.
func (m *Manager) QueuePlaylist(ctx context.Context, playlistID string) (int, error) {
	if !m.stateMgr.IsActive() {
		return 0, ErrSessionNotActive
	}
	p, err := m.library.GetPlaylist(ctx, playlistID)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, t := range p.Tracks {
		m.remember(t)
		if m.player.IsInQueue(t.ID) {
			continue
		}
		if err := m.admit(ctx, t, filter.SourceUser); err != nil {
			zlog.Debug().Msgf("session: playlist %s skipped track=%s: %v", playlistID, t.ID, err)
			continue
		}
		if err := m.player.AddToQueue(t); err != nil {
			continue
		}
		added++
	}
	zlog.Info().Msgf("queued playlist: id=%s tracks=%d added=%d", playlistID, len(p.Tracks), added)
	return added, nil
}

// GetStats returns the listening stats of the signed-in user.
func (m *Manager) GetStats(ctx context.Context) (*stats.Stats, error) {
	return m.stats.Stats(ctx)
}

// KnownTracks returns every track the session can resolve, sorted by id.
func (m *Manager) KnownTracks() []track.Track {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tracks := make([]track.Track, 0, len(m.known))
	for _, t := range m.known {
		tracks = append(tracks, t)
	}
	slices.SortFunc(tracks, func(a, b track.Track) int { return strings.Compare(a.ID, b.ID) })
	return tracks
}

// admit runs the admission filters.
func (m *Manager) admit(ctx context.Context, t track.Track, source filter.Source) error {
	req := filter.Request{Track: t, Source: source}
	if u := m.auth.CurrentUser(); u != nil {
		req.UserID = u.ID
	}
	result := m.filterChain.Execute(ctx, req)
	if !result.Accepted {
		zlog.Info().Msgf("track request: track=%s result=false code=%s", t.ID, result.Code)
		return &RejectedError{Code: result.Code, Filter: result.Filter}
	}
	return nil
}

func (m *Manager) remember(t track.Track) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.known.Add(t)
}
