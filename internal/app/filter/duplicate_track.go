package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/osa030/vibeflow/internal/domain/track"
)

// DuplicateTrackFilter rejects tracks that are already queued.
// Detects:
// - Exact track ID matches
// - Remasters and alternate versions (normalized title + same main artist)
// Cover songs (same title, different artist) pass.
type DuplicateTrackFilter struct {
	queue QueueReader
}

// QueueReader gives read access to the queue.
type QueueReader interface {
	GetQueuedTracks() []track.Track
}

// NewDuplicateTrackFilter creates a new duplicate track filter.
func NewDuplicateTrackFilter(queue QueueReader) *DuplicateTrackFilter {
	return &DuplicateTrackFilter{queue: queue}
}

func (f *DuplicateTrackFilter) Name() string {
	return "duplicate_track_filter"
}

func (f *DuplicateTrackFilter) Description() string {
	return "Rejects tracks already in the queue, including remasters of a queued song; covers are allowed"
}

func (f *DuplicateTrackFilter) ReturnCodes() []string {
	return []string{"duplicate_track"}
}

func (f *DuplicateTrackFilter) AppliesTo(source Source) bool {
	return true
}

func (f *DuplicateTrackFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *DuplicateTrackFilter) Check(ctx context.Context, req Request) Result {
	for _, queued := range f.queue.GetQueuedTracks() {
		if queued.ID == req.Track.ID || isRemaster(queued, req.Track) {
			return Reject("duplicate_track")
		}
	}
	return Accept()
}

// isRemaster reports whether two tracks are versions of the same song by the same artist.
func isRemaster(a, b track.Track) bool {
	if normalizeTrackName(a.Title) != normalizeTrackName(b.Title) {
		return false
	}
	return isSameArtist(a, b)
}

var (
	remasterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*-?\s*\d{4}\s+remaster(ed)?`),      // "- 2011 Remaster"
		regexp.MustCompile(`\s*\(remaster(ed)?\s*\d{0,4}\)`),     // "(Remastered 2023)"
		regexp.MustCompile(`\s*\[remaster(ed)?\s*\d{0,4}\]`),     // "[Remastered]"
		regexp.MustCompile(`\s*-?\s*remaster(ed)?(\s+version)?`), // "- Remastered"
		regexp.MustCompile(`\s*\(.*?remaster.*?\)`),              // "(Any Remaster text)"
		regexp.MustCompile(`\s*\[.*?remaster.*?\]`),              // "[Any Remaster text]"
	}
	versionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(.*?version\)`),        // "(Single Version)"
		regexp.MustCompile(`\s*\(.*?edit\)`),           // "(Radio Edit)"
		regexp.MustCompile(`\s*-?\s*live`),             // "- Live"
		regexp.MustCompile(`\s*\(live\)`),              // "(Live)"
		regexp.MustCompile(`\s*-?\s*radio\s+edit`),     // "- Radio Edit"
		regexp.MustCompile(`\s*-?\s*single\s+version`), // "- Single Version"
	}
	whitespace = regexp.MustCompile(`\s+`)
)

// normalizeTrackName strips remaster and version decorations from a title.
func normalizeTrackName(name string) string {
	normalized := strings.ToLower(name)
	for _, pattern := range remasterPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	for _, pattern := range versionPatterns {
		normalized = pattern.ReplaceAllString(normalized, "")
	}
	normalized = strings.TrimSpace(normalized)
	normalized = whitespace.ReplaceAllString(normalized, " ")
	return strings.TrimRight(normalized, " -")
}

// isSameArtist compares the main (first credited) artist, case-insensitively.
func isSameArtist(a, b track.Track) bool {
	artistA, artistB := a.MainArtist(), b.MainArtist()
	if artistA == "" || artistB == "" {
		return false
	}
	return strings.EqualFold(artistA, artistB)
}
