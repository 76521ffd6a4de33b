package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func newTestRecorder(limit int) (*Recorder, *fakeAuth) {
	auth := &fakeAuth{user: user.NewUser("u1", "alice@example.com", "Alice")}
	r := NewRecorder(store.NewMemoryStore(), auth, limit)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	r.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}
	return r, auth
}

func play(id, artist, genre string) track.Track {
	return track.Track{ID: id, Title: "Song " + id, Artist: artist, Genre: genre, Duration: 2 * time.Minute}
}

func TestRecorder_RequiresUser(t *testing.T) {
	r, auth := newTestRecorder(0)
	auth.user = nil

	assert.ErrorIs(t, r.RecordPlay(context.Background(), play("t1", "A", "Pop")), ErrAuthRequired)
	_, err := r.Stats(context.Background())
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestRecorder_Stats(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecorder(0)

	plays := []track.Track{
		play("t1", "Artist A", "Pop"),
		play("t2", "Artist B", "Rock"),
		play("t1", "Artist A", "Pop"),
		play("t3", "Artist C", ""),
		play("t1", "Artist A", "Pop"),
		play("t2", "Artist B", "Rock"),
	}
	for _, p := range plays {
		require.NoError(t, r.RecordPlay(ctx, p))
	}

	s, err := r.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 6, s.SongsPlayed)
	assert.Equal(t, 12*time.Minute, s.TotalListeningTime)

	assert.Equal(t, []Count{
		{Name: "Artist A", Count: 3},
		{Name: "Artist B", Count: 2},
		{Name: "Artist C", Count: 1},
	}, s.TopArtists)
	assert.Equal(t, []Count{
		{Name: "Pop", Count: 3},
		{Name: "Rock", Count: 2},
		{Name: "Unknown", Count: 1},
	}, s.TopGenres)

	require.Len(t, s.MostPlayed, 3)
	assert.Equal(t, "t1", s.MostPlayed[0].TrackID)
	assert.Equal(t, 3, s.MostPlayed[0].PlayCount)

	require.Len(t, s.RecentlyPlayed, 6)
	assert.Equal(t, "t2", s.RecentlyPlayed[0].TrackID, "newest first")
	assert.Equal(t, "t1", s.RecentlyPlayed[5].TrackID)
}

func TestRecorder_Limits(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecorder(25)

	for i := 0; i < 30; i++ {
		require.NoError(t, r.RecordPlay(ctx, play(fmt.Sprintf("t%d", i), fmt.Sprintf("Artist %d", i), fmt.Sprintf("Genre %d", i))))
	}

	history, err := r.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 25)
	assert.Equal(t, "t5", history[0].TrackID, "oldest plays are dropped")

	s, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, s.SongsPlayed, "totals are not capped")
	assert.Len(t, s.TopArtists, 5)
	assert.Len(t, s.TopGenres, 5)
	assert.Len(t, s.MostPlayed, 10)
	assert.Len(t, s.RecentlyPlayed, 20)
	assert.Equal(t, "t29", s.RecentlyPlayed[0].TrackID)
}

func TestRecorder_PerUser(t *testing.T) {
	ctx := context.Background()
	r, auth := newTestRecorder(0)

	require.NoError(t, r.RecordPlay(ctx, play("t1", "A", "Pop")))

	auth.user = user.NewUser("u2", "bob@example.com", "")
	s, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, s.SongsPlayed)
	assert.Empty(t, s.RecentlyPlayed)
}
