// Package playlist provides the Playlist domain entity.
package playlist

import (
	"slices"
	"time"

	"github.com/osa030/vibeflow/internal/domain/track"
)

// Default playlist IDs every user owns. They cannot be deleted.
const (
	FavoritesID      = "favorites"
	RecentlyPlayedID = "recently-played"
)

// Playlist represents a user-owned playlist.
type Playlist struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	CoverImage  string        `json:"cover_image,omitempty"`
	Tracks      []track.Track `json:"tracks"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsDefault reports whether the playlist is one of the built-in ones.
func (p *Playlist) IsDefault() bool {
	return p.ID == FavoritesID || p.ID == RecentlyPlayedID
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// Contains reports whether a track with the given ID is in the playlist.
func (p *Playlist) Contains(trackID string) bool {
	return slices.ContainsFunc(p.Tracks, func(t track.Track) bool { return t.ID == trackID })
}

// Add appends a track. Returns false if the track is already present.
func (p *Playlist) Add(t track.Track, now time.Time) bool {
	if p.Contains(t.ID) {
		return false
	}
	p.Tracks = append(p.Tracks, t)
	p.UpdatedAt = now
	return true
}

// Remove drops the track with the given ID. Returns false if it was absent.
func (p *Playlist) Remove(trackID string, now time.Time) bool {
	n := len(p.Tracks)
	p.Tracks = slices.DeleteFunc(p.Tracks, func(t track.Track) bool { return t.ID == trackID })
	if len(p.Tracks) == n {
		return false
	}
	p.UpdatedAt = now
	return true
}

// TotalDuration returns the total duration of all tracks in seconds.
func (p *Playlist) TotalDuration() int64 {
	var total int64
	for _, t := range p.Tracks {
		total += int64(t.Duration.Seconds())
	}
	return total
}
