// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"
)

// Track is an immutable description of a playable song.
// Identity is the ID; two tracks with the same ID are the same track.
type Track struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Artist      string        `json:"artist"`
	Album       string        `json:"album"`
	Duration    time.Duration `json:"duration"`      // Declared length
	CoverArtURL string        `json:"cover_art_url"` // Artwork URL
	AudioURL    string        `json:"audio_url"`     // Source handed to the audio backend
	Year        int           `json:"year,omitempty"`
	Genre       string        `json:"genre,omitempty"`

	// Region availability, only known for tracks imported from Spotify.
	Markets    []string `json:"markets,omitempty"`
	IsPlayable *bool    `json:"is_playable,omitempty"`
}

// ArtistID returns the identifier used for follow/unfollow.
// The catalog has no separate artist ids, so the normalized name is used.
func (t *Track) ArtistID() string {
	return ArtistIDFromName(t.Artist)
}

// ArtistIDFromName normalizes an artist name into an artist id.
func ArtistIDFromName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MainArtist returns the first credited artist.
func (t *Track) MainArtist() string {
	name, _, _ := strings.Cut(t.Artist, ",")
	return strings.TrimSpace(name)
}

// IsValid reports whether the track carries enough information to be queued.
func (t *Track) IsValid() bool {
	return t.ID != "" && t.Title != "" && t.Duration > 0
}

// IsAvailableInMarket checks if the track is available in the specified market.
// Tracks without region information are treated as available everywhere.
func (t *Track) IsAvailableInMarket(market string) bool {
	// IsPlayable takes precedence (Track Relinking support)
	if t.IsPlayable != nil {
		return *t.IsPlayable
	}
	if len(t.Markets) == 0 {
		return true
	}
	for _, m := range t.Markets {
		if m == market {
			return true
		}
	}
	return false
}
