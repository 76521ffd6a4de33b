package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/vibeflow/internal/domain/track"
)

func TestDefault(t *testing.T) {
	tracks := Default()

	require.Len(t, tracks, 16)
	first := tracks[0]
	assert.Equal(t, "track1", first.ID)
	assert.Equal(t, "Moonlight", first.Title)
	assert.Equal(t, "XXXTENTACION", first.Artist)
	assert.Equal(t, 135*time.Second, first.Duration)
	assert.Equal(t, 2018, first.Year)
	assert.Equal(t, "Hip Hop", first.Genre)
	assert.Equal(t, "track16", tracks[15].ID)

	for _, tr := range tracks {
		assert.True(t, tr.IsValid(), tr.ID)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantLen int
		wantErr bool
	}{
		{
			name: "valid",
			yaml: `
tracks:
  - id: a
    title: Song A
    artist: Artist
    duration_sec: 120
    audio_url: /songs/a.mp3
  - id: b
    title: Song B
    artist: Artist
    audio_url: /songs/b.mp3
`,
			wantLen: 2,
		},
		{
			name:    "empty",
			yaml:    "tracks: []",
			wantLen: 0,
		},
		{
			name: "missing audio url",
			yaml: `
tracks:
  - id: a
    title: Song A
    artist: Artist
`,
			wantErr: true,
		},
		{
			name: "duplicate id",
			yaml: `
tracks:
  - {id: a, title: A, artist: X, audio_url: /a.mp3}
  - {id: a, title: A2, artist: X, audio_url: /a2.mp3}
`,
			wantErr: true,
		},
		{
			name:    "malformed",
			yaml:    "tracks: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks, err := Parse([]byte(tt.yaml))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, tracks, tt.wantLen)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tracks:
  - {id: a, title: A, artist: X, duration_sec: 90, audio_url: /a.mp3, genre: Pop}
`), 0o644))

	tracks, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, 90*time.Second, tracks[0].Duration)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestIndex(t *testing.T) {
	idx := NewIndex(Default())

	got, ok := idx.Lookup("track3")
	require.True(t, ok)
	assert.Equal(t, "As It Was", got.Title)

	_, ok = idx.Lookup("nope")
	assert.False(t, ok)

	idx.Add(track.Track{ID: "extra", Title: "Extra"})
	_, ok = idx.Lookup("extra")
	assert.True(t, ok)
}
