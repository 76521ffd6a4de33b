package library

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/vibeflow/internal/domain/playlist"
	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/domain/user"
	"github.com/osa030/vibeflow/internal/infra/store"
)

type fakeAuth struct {
	user *user.User
}

func (f *fakeAuth) CurrentUser() *user.User {
	return f.user
}

func newTestLibrary(t *testing.T) (*Library, *fakeAuth, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	auth := &fakeAuth{user: user.NewUser("u1", "alice@example.com", "Alice")}
	lib := NewLibrary(st, auth)
	lib.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return lib, auth, st
}

func sampleTrack(id string) track.Track {
	return track.Track{ID: id, Title: "Title " + id, Artist: "Artist", Duration: 3 * time.Minute}
}

func TestFavorites_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fav := NewFavorites(store.NewMemoryStore())

	liked, followed, err := fav.LoadFavorites(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, liked)
	assert.Empty(t, followed)

	require.NoError(t, fav.SaveLiked(ctx, "u1", []string{"track1", "track2"}))
	require.NoError(t, fav.SaveFollowed(ctx, "u1", []string{"xxxtentacion"}))

	liked, followed, err = fav.LoadFavorites(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"track1", "track2"}, liked)
	assert.Equal(t, []string{"xxxtentacion"}, followed)

	liked, _, err = fav.LoadFavorites(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, liked, "favorites are per user")
}

func TestLibrary_DefaultPlaylists(t *testing.T) {
	lib, _, _ := newTestLibrary(t)

	lists, err := lib.Playlists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, playlist.FavoritesID, lists[0].ID)
	assert.Equal(t, playlist.RecentlyPlayedID, lists[1].ID)
}

func TestLibrary_RequiresUser(t *testing.T) {
	ctx := context.Background()
	lib, auth, _ := newTestLibrary(t)
	auth.user = nil

	_, err := lib.Playlists(ctx)
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = lib.CreatePlaylist(ctx, "Road trip", "")
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.ErrorIs(t, lib.AddToPlaylist(ctx, playlist.FavoritesID, sampleTrack("track1")), ErrAuthRequired)
	assert.False(t, lib.IsTrackInPlaylist(ctx, playlist.FavoritesID, "track1"))
}

func TestLibrary_CreateAndEdit(t *testing.T) {
	ctx := context.Background()
	lib, _, _ := newTestLibrary(t)

	p, err := lib.CreatePlaylist(ctx, "  Road trip ", "long drives")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.ID, "playlist_"))
	assert.Equal(t, "Road trip", p.Name)

	_, err = lib.CreatePlaylist(ctx, "   ", "")
	assert.ErrorIs(t, err, ErrEmptyName)

	require.NoError(t, lib.AddToPlaylist(ctx, p.ID, sampleTrack("track1")))
	require.NoError(t, lib.AddToPlaylist(ctx, p.ID, sampleTrack("track2")))
	assert.ErrorIs(t, lib.AddToPlaylist(ctx, p.ID, sampleTrack("track1")), ErrAlreadyInPlaylist)
	assert.True(t, lib.IsTrackInPlaylist(ctx, p.ID, "track2"))

	require.NoError(t, lib.RemoveFromPlaylist(ctx, p.ID, "track1"))
	assert.ErrorIs(t, lib.RemoveFromPlaylist(ctx, p.ID, "track1"), ErrTrackNotFound)

	require.NoError(t, lib.RenamePlaylist(ctx, p.ID, "Night drive"))
	require.NoError(t, lib.UpdateDescription(ctx, p.ID, "after midnight"))
	assert.ErrorIs(t, lib.RenamePlaylist(ctx, p.ID, ""), ErrEmptyName)

	got, err := lib.GetPlaylist(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Night drive", got.Name)
	assert.Equal(t, "after midnight", got.Description)
	assert.Equal(t, []string{"track2"}, got.TrackIDs())

	_, err = lib.GetPlaylist(ctx, "missing")
	assert.ErrorIs(t, err, ErrPlaylistNotFound)
	assert.ErrorIs(t, lib.AddToPlaylist(ctx, "missing", sampleTrack("track1")), ErrPlaylistNotFound)
}

func TestLibrary_DeletePlaylist(t *testing.T) {
	ctx := context.Background()
	lib, _, _ := newTestLibrary(t)

	p, err := lib.CreatePlaylist(ctx, "Temp", "")
	require.NoError(t, err)

	assert.ErrorIs(t, lib.DeletePlaylist(ctx, playlist.FavoritesID), ErrDefaultPlaylist)
	assert.ErrorIs(t, lib.DeletePlaylist(ctx, playlist.RecentlyPlayedID), ErrDefaultPlaylist)
	assert.ErrorIs(t, lib.DeletePlaylist(ctx, "missing"), ErrPlaylistNotFound)
	require.NoError(t, lib.DeletePlaylist(ctx, p.ID))

	lists, err := lib.Playlists(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 2)
}

func TestLibrary_PlaylistsArePerUser(t *testing.T) {
	ctx := context.Background()
	lib, auth, st := newTestLibrary(t)

	_, err := lib.CreatePlaylist(ctx, "Alice mix", "")
	require.NoError(t, err)

	auth.user = user.NewUser("u2", "bob@example.com", "")
	lists, err := lib.Playlists(ctx)
	require.NoError(t, err)
	assert.Len(t, lists, 2)

	// Survives a new Library on the same store.
	auth.user = user.NewUser("u1", "alice@example.com", "")
	reopened := NewLibrary(st, auth)
	lists, err = reopened.Playlists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 3)
	assert.Equal(t, "Alice mix", lists[2].Name)
}

func TestLibrary_RecordRecentlyPlayed(t *testing.T) {
	ctx := context.Background()
	lib, _, _ := newTestLibrary(t)

	for i := 0; i < RecentlyPlayedLimit+5; i++ {
		require.NoError(t, lib.RecordRecentlyPlayed(ctx, sampleTrack(fmt.Sprintf("t%d", i))))
	}
	require.NoError(t, lib.RecordRecentlyPlayed(ctx, sampleTrack("t10")))

	p, err := lib.GetPlaylist(ctx, playlist.RecentlyPlayedID)
	require.NoError(t, err)
	ids := p.TrackIDs()
	assert.Len(t, ids, RecentlyPlayedLimit)
	assert.Equal(t, "t10", ids[len(ids)-1], "replayed track moves to the end")
	assert.NotContains(t, ids, "t0")
}

func TestLikedSongs(t *testing.T) {
	known := []track.Track{sampleTrack("track1"), sampleTrack("track2"), sampleTrack("track3")}

	got := LikedSongs([]string{"track3", "missing", "track1"}, known)
	require.Len(t, got, 2)
	assert.Equal(t, "track3", got[0].ID)
	assert.Equal(t, "track1", got[1].ID)

	assert.Empty(t, LikedSongs(nil, known))
}
