// Package autoplay provides the recommendation strategies used to keep the
// music going once the queue runs out.
package autoplay

import (
	"context"

	"github.com/osa030/vibeflow/internal/domain/track"
)

// Provider is the interface for recommendation providers.
type Provider interface {
	// GetCandidates retrieves up to count tracks.
	// seeds: recently played tracks, most recent first
	// exclude: tracks that must not be returned (already queued)
	GetCandidates(ctx context.Context, count int, seeds []track.Track, exclude map[string]bool) ([]track.Track, error)

	// Name returns the provider type (used in config).
	Name() string
}

// TrackSearcher finds playable tracks by free-text query.
type TrackSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]track.Track, error)
}

// dedupe removes tracks whose id was already seen, keeping order.
func dedupe(tracks []track.Track) []track.Track {
	seen := make(map[string]bool, len(tracks))
	result := make([]track.Track, 0, len(tracks))
	for _, t := range tracks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		result = append(result, t)
	}
	return result
}
