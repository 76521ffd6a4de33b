package playlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/vibeflow/internal/domain/track"
)

func TestPlaylist_TrackIDs(t *testing.T) {
	tests := []struct {
		name     string
		tracks   []track.Track
		expected []string
	}{
		{
			name:     "empty playlist",
			tracks:   []track.Track{},
			expected: []string{},
		},
		{
			name:     "single track",
			tracks:   []track.Track{{ID: "track-1"}},
			expected: []string{"track-1"},
		},
		{
			name:     "multiple tracks",
			tracks:   []track.Track{{ID: "track-1"}, {ID: "track-2"}, {ID: "track-3"}},
			expected: []string{"track-1", "track-2", "track-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{ID: "playlist-1", Tracks: tt.tracks}
			assert.Equal(t, tt.expected, p.TrackIDs())
		})
	}
}

func TestPlaylist_TotalDuration(t *testing.T) {
	tests := []struct {
		name     string
		tracks   []track.Track
		expected int64
	}{
		{
			name:     "empty playlist",
			tracks:   []track.Track{},
			expected: 0,
		},
		{
			name: "multiple tracks",
			tracks: []track.Track{
				{ID: "track-1", Duration: 2 * time.Minute},
				{ID: "track-2", Duration: 3*time.Minute + 30*time.Second},
				{ID: "track-3", Duration: 4 * time.Minute},
			},
			expected: 570,
		},
		{
			name: "sample catalog lengths",
			tracks: []track.Track{
				{ID: "track1", Duration: 135 * time.Second},
				{ID: "track2", Duration: 225 * time.Second},
			},
			expected: 360,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{ID: "playlist-1", Tracks: tt.tracks}
			assert.Equal(t, tt.expected, p.TotalDuration())
		})
	}
}

func TestPlaylist_AddRemove(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := created.Add(time.Hour)
	p := &Playlist{ID: "playlist-1", Name: "Road trip", CreatedAt: created, UpdatedAt: created}

	assert.True(t, p.Add(track.Track{ID: "track-1"}, later))
	assert.False(t, p.Add(track.Track{ID: "track-1"}, later.Add(time.Hour)), "duplicate add is rejected")
	assert.Equal(t, later, p.UpdatedAt)
	assert.True(t, p.Contains("track-1"))

	assert.False(t, p.Remove("missing", later))
	assert.True(t, p.Remove("track-1", later.Add(time.Minute)))
	assert.False(t, p.Contains("track-1"))
	assert.Equal(t, later.Add(time.Minute), p.UpdatedAt)
}

func TestPlaylist_IsDefault(t *testing.T) {
	assert.True(t, (&Playlist{ID: FavoritesID}).IsDefault())
	assert.True(t, (&Playlist{ID: RecentlyPlayedID}).IsDefault())
	assert.False(t, (&Playlist{ID: "playlist_1"}).IsDefault())
}
