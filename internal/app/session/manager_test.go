package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/vibeflow/internal/app/notification"
	"github.com/osa030/vibeflow/internal/app/playback"
	"github.com/osa030/vibeflow/internal/app/session/state"
	"github.com/osa030/vibeflow/internal/domain/playlist"
	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/infra/config"
	"github.com/osa030/vibeflow/internal/infra/store"
)

type fakeSpotify struct {
	tracks   map[string]track.Track
	playlist []track.Track
	err      error
}

func (f *fakeSpotify) GetTrack(_ context.Context, trackID string) (*track.Track, error) {
	t, ok := f.tracks[trackID]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return &t, nil
}

func (f *fakeSpotify) GetPlaylistTracks(_ context.Context, _ string) ([]track.Track, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.playlist, nil
}

func (f *fakeSpotify) Search(_ context.Context, _ string, _ int) ([]track.Track, error) {
	result := make([]track.Track, 0, len(f.tracks))
	for _, t := range f.tracks {
		result = append(result, t)
	}
	return result, nil
}

type recordingStream struct {
	mu  sync.Mutex
	got []string
}

func (s *recordingStream) Send(n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n.Type)
	return nil
}

func (s *recordingStream) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.got...)
}

func newTrack(id, title, artist string) track.Track {
	return track.Track{ID: id, Title: title, Artist: artist, Duration: 3 * time.Minute, AudioURL: "/songs/" + id + ".mp3"}
}

func testQueue() []track.Track {
	return []track.Track{
		newTrack("a", "Alpha", "Artist A"),
		newTrack("b", "Bravo", "Artist B"),
		newTrack("c", "Charlie", "Artist C"),
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Playback.ShuffleSeed = 42
	cfg.Filters = map[string]config.FilterConfig{
		"duplicate_track_filter": {Enabled: true},
	}
	return cfg
}

func newTestManager(t *testing.T, st store.Store, source TrackSource) *Manager {
	t.Helper()
	opts := Options{Queue: testQueue()}
	if source != nil {
		opts.Spotify = source
	}
	m, err := NewManager(context.Background(), testConfig(t), st, opts)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func queueIDs(m *Manager) []string {
	var ids []string
	for _, t := range m.Player().GetQueuedTracks() {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestManager_Lifecycle(t *testing.T) {
	m := newTestManager(t, store.NewMemoryStore(), nil)
	ctx := context.Background()

	assert.Equal(t, state.PhaseStarting, m.Info().Phase)
	_, err := m.AddToQueue(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotActive)

	require.NoError(t, m.Start(ctx))
	assert.Equal(t, state.PhaseActive, m.Info().Phase)
	assert.Error(t, m.Start(ctx))

	m.Close()
	m.Close()
	assert.Equal(t, state.PhaseTerminated, m.Info().Phase)
	select {
	case <-m.Done():
	default:
		t.Fatal("done channel should be closed")
	}
}

func TestManager_AddToQueue(t *testing.T) {
	source := &fakeSpotify{tracks: map[string]track.Track{
		"spotify:xyz": newTrack("spotify:xyz", "Imported", "Remote Artist"),
	}}
	m := newTestManager(t, store.NewMemoryStore(), source)
	ctx := context.Background()
	require.NoError(t, m.Start(ctx))

	_, err := m.AddToQueue(ctx, "a")
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "duplicate_track", rejected.Code)
	assert.Equal(t, "duplicate_track_filter", rejected.Filter)

	_, err = m.AddToQueue(ctx, "missing")
	assert.ErrorIs(t, err, ErrTrackNotFound)
	_, err = m.AddToQueue(ctx, "spotify:unknown")
	assert.ErrorIs(t, err, ErrTrackNotFound)

	require.NoError(t, m.Player().RemoveFromQueue(2))
	added, err := m.AddToQueue(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "Charlie", added.Title)

	added, err = m.AddToQueue(ctx, "spotify:xyz")
	require.NoError(t, err)
	assert.Equal(t, "Imported", added.Title)
	assert.Equal(t, []string{"a", "b", "c", "spotify:xyz"}, queueIDs(m))

	snap := m.Player().Snapshot()
	assert.Equal(t, 0, snap.CurrentIndex, "adding never changes the current track")
	assert.Equal(t, playback.StatePaused, snap.State)
}

func TestManager_ImportSpotifyPlaylist(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		m := newTestManager(t, store.NewMemoryStore(), nil)
		require.NoError(t, m.Start(ctx))
		_, err := m.ImportSpotifyPlaylist(ctx, "spotify:playlist:abc")
		assert.ErrorIs(t, err, ErrSpotifyDisabled)
	})

	t.Run("imports new tracks", func(t *testing.T) {
		source := &fakeSpotify{playlist: []track.Track{
			newTrack("spotify:1", "One", "Remote"),
			newTrack("a", "Alpha", "Artist A"),
			newTrack("spotify:2", "Two", "Remote"),
		}}
		m := newTestManager(t, store.NewMemoryStore(), source)
		require.NoError(t, m.Start(ctx))

		added, err := m.ImportSpotifyPlaylist(ctx, "spotify:playlist:abc")
		require.NoError(t, err)
		assert.Equal(t, 2, added)
		assert.Equal(t, []string{"a", "b", "c", "spotify:1", "spotify:2"}, queueIDs(m))

		info := m.Info()
		assert.Equal(t, state.ImportDone, info.Import)
		assert.Equal(t, 2, info.ImportedCount)

		_, err = m.ResolveTrack(ctx, "spotify:2")
		assert.NoError(t, err, "imported tracks become resolvable")
	})

	t.Run("fetch failure", func(t *testing.T) {
		source := &fakeSpotify{err: errors.New("503 Service Unavailable")}
		m := newTestManager(t, store.NewMemoryStore(), source)
		require.NoError(t, m.Start(ctx))

		_, err := m.ImportSpotifyPlaylist(ctx, "spotify:playlist:abc")
		assert.Error(t, err)
		assert.Equal(t, state.ImportFailed, m.Info().Import)
	})
}

func TestManager_EventLoop(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemoryStore(), nil)
	require.NoError(t, m.Start(ctx))

	stream := &recordingStream{}
	nm := m.GetNotificationManager()
	sub := nm.Subscribe()
	go func() { _ = nm.Forward(ctx, sub, stream) }()

	_, err := m.Auth().Login(ctx, "demo@example.com", "demo1234")
	require.NoError(t, err)
	require.NoError(t, m.Player().PlayAt(1))

	require.Eventually(t, func() bool {
		s, err := m.GetStats(ctx)
		return err == nil && s.SongsPlayed == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		for _, typ := range stream.types() {
			if typ == "track_changed" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	s, err := m.GetStats(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, s.RecentlyPlayed)
	assert.Equal(t, "b", s.RecentlyPlayed[0].TrackID)

	require.Eventually(t, func() bool {
		p, err := m.Library().GetPlaylist(ctx, playlist.RecentlyPlayedID)
		return err == nil && p.Contains("b")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManager_SignedOutPlaysAreNotRecorded(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemoryStore(), nil)
	require.NoError(t, m.Start(ctx))

	stream := &recordingStream{}
	nm := m.GetNotificationManager()
	sub := nm.Subscribe()
	go func() { _ = nm.Forward(ctx, sub, stream) }()
	require.NoError(t, m.Player().Next())

	require.Eventually(t, func() bool { return len(stream.types()) > 0 }, 2*time.Second, 10*time.Millisecond)

	_, err := m.Auth().Login(ctx, "demo@example.com", "demo1234")
	require.NoError(t, err)
	s, err := m.GetStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, s.SongsPlayed)
}

func TestManager_ToggleLike(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemoryStore(), nil)
	require.NoError(t, m.Start(ctx))

	_, err := m.ToggleLike(ctx, "b")
	assert.ErrorIs(t, err, playback.ErrAuthRequired)

	_, err = m.Auth().Login(ctx, "demo@example.com", "demo1234")
	require.NoError(t, err)

	liked, err := m.ToggleLike(ctx, "b")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.True(t, m.Library().IsTrackInPlaylist(ctx, playlist.FavoritesID, "b"))

	songs := m.LikedSongs()
	require.Len(t, songs, 1)
	assert.Equal(t, "Bravo", songs[0].Title)

	liked, err = m.ToggleLike(ctx, "b")
	require.NoError(t, err)
	assert.False(t, liked)
	assert.False(t, m.Library().IsTrackInPlaylist(ctx, playlist.FavoritesID, "b"))
	assert.Empty(t, m.LikedSongs())
}

func TestManager_RestoresFromStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	first := newTestManager(t, st, nil)
	require.NoError(t, first.Start(ctx))
	_, err := first.Auth().Login(ctx, "demo@example.com", "demo1234")
	require.NoError(t, err)
	require.NoError(t, first.Player().SetVolume(30))
	_, err = first.ToggleLike(ctx, "c")
	require.NoError(t, err)
	first.Close()

	second := newTestManager(t, st, nil)
	assert.True(t, second.Auth().IsAuthenticated())
	assert.Equal(t, 30, second.Player().Snapshot().Volume)
	assert.True(t, second.Player().IsLiked("c"))
	assert.Equal(t, "balanced", second.StreamingQuality())

	require.NoError(t, second.Auth().Logout(ctx))
	assert.Equal(t, "low", second.StreamingQuality())
	assert.False(t, second.Player().IsLiked("c"))
}

func TestManager_QueuePlaylist(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemoryStore(), nil)
	require.NoError(t, m.Start(ctx))
	_, err := m.Auth().Login(ctx, "demo@example.com", "demo1234")
	require.NoError(t, err)

	p, err := m.Library().CreatePlaylist(ctx, "Mix", "")
	require.NoError(t, err)
	_, err = m.AddToPlaylist(ctx, p.ID, "a")
	require.NoError(t, err)
	require.NoError(t, m.Library().AddToPlaylist(ctx, p.ID, newTrack("d", "Delta", "Artist D")))

	added, err := m.QueuePlaylist(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"a", "b", "c", "d"}, queueIDs(m))

	_, err = m.ResolveTrack(ctx, "d")
	assert.NoError(t, err)
}

func TestManager_QueuePlaylistRunsFilters(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Filters["duration_limit_filter"] = config.FilterConfig{
		Enabled:  true,
		Settings: map[string]any{"min_minutes": 1.0, "max_minutes": 10.0},
	}
	m, err := NewManager(ctx, cfg, store.NewMemoryStore(), Options{Queue: testQueue()})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	require.NoError(t, m.Start(ctx))
	_, err = m.Auth().Login(ctx, "demo@example.com", "demo1234")
	require.NoError(t, err)

	long := newTrack("long", "Extended Mix", "Artist L")
	long.Duration = 20 * time.Minute
	p, err := m.Library().CreatePlaylist(ctx, "Marathon", "")
	require.NoError(t, err)
	require.NoError(t, m.Library().AddToPlaylist(ctx, p.ID, long))
	require.NoError(t, m.Library().AddToPlaylist(ctx, p.ID, newTrack("e", "Echo", "Artist E")))

	added, err := m.QueuePlaylist(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, []string{"a", "b", "c", "e"}, queueIDs(m))
}
