// Package catalog loads the track catalog the player starts with.
package catalog

import (
	_ "embed"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/osa030/vibeflow/internal/domain/track"
)

//go:embed tracks.yaml
var defaultCatalog []byte

// file is the YAML layout of a catalog.
type file struct {
	Tracks []entry `yaml:"tracks" validate:"dive"`
}

type entry struct {
	ID          string `yaml:"id" validate:"required"`
	Title       string `yaml:"title" validate:"required"`
	Artist      string `yaml:"artist" validate:"required"`
	Album       string `yaml:"album"`
	DurationSec int    `yaml:"duration_sec" validate:"gte=0"`
	CoverArtURL string `yaml:"cover_art_url"`
	AudioURL    string `yaml:"audio_url" validate:"required"`
	Year        int    `yaml:"year" validate:"gte=0"`
	Genre       string `yaml:"genre"`
}

func (e entry) toTrack() track.Track {
	return track.Track{
		ID:          e.ID,
		Title:       e.Title,
		Artist:      e.Artist,
		Album:       e.Album,
		Duration:    time.Duration(e.DurationSec) * time.Second,
		CoverArtURL: e.CoverArtURL,
		AudioURL:    e.AudioURL,
		Year:        e.Year,
		Genre:       e.Genre,
	}
}

// Default returns the built-in sample tracks.
func Default() []track.Track {
	tracks, err := Parse(defaultCatalog)
	if err != nil {
		panic(errors.Wrap(err, "embedded catalog is invalid"))
	}
	return tracks
}

// Load reads a catalog from a YAML file.
func Load(path string) ([]track.Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}
	tracks, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return tracks, nil
}

// Parse decodes catalog YAML. Duplicate track ids are rejected.
func Parse(data []byte) ([]track.Track, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog")
	}
	if err := validator.New().Struct(&f); err != nil {
		return nil, errors.Wrap(err, "catalog validation failed")
	}

	seen := make(map[string]struct{}, len(f.Tracks))
	tracks := make([]track.Track, 0, len(f.Tracks))
	for _, e := range f.Tracks {
		if _, dup := seen[e.ID]; dup {
			return nil, errors.Newf("duplicate track id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
		tracks = append(tracks, e.toTrack())
	}
	return tracks, nil
}

// Index maps track ids to tracks.
type Index map[string]track.Track

// NewIndex builds an index over the given tracks.
func NewIndex(tracks []track.Track) Index {
	idx := make(Index, len(tracks))
	for _, t := range tracks {
		idx[t.ID] = t
	}
	return idx
}

// Lookup returns the track with the given id.
func (idx Index) Lookup(id string) (track.Track, bool) {
	t, ok := idx[id]
	return t, ok
}

// Add inserts or replaces a track.
func (idx Index) Add(t track.Track) {
	idx[t.ID] = t
}
