package autoplay

import (
	"context"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/vibeflow/internal/domain/track"
)

type CatalogProviderConfig struct {
	// Rank tracks by the artists and genres of the seeds; random order otherwise.
	PreferSimilar bool `yaml:"prefer_similar" mapstructure:"prefer_similar" default:"true"`
}

// CatalogProvider recommends tracks the session already knows about.
type CatalogProvider struct {
	tracks func() []track.Track
	config CatalogProviderConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCatalogProvider creates a provider over the tracks returned by tracks.
func NewCatalogProvider(tracks func() []track.Track, settings map[string]any, seed int64) (*CatalogProvider, error) {
	if tracks == nil {
		return nil, errors.New("track source is required")
	}

	config := CatalogProviderConfig{}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &CatalogProvider{
		tracks: tracks,
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// GetCandidates returns up to count known tracks that are not excluded.
func (p *CatalogProvider) GetCandidates(ctx context.Context, count int, seeds []track.Track, exclude map[string]bool) ([]track.Track, error) {
	if count <= 0 {
		return []track.Track{}, nil
	}

	pool := make([]track.Track, 0)
	for _, t := range p.tracks() {
		if !exclude[t.ID] {
			pool = append(pool, t)
		}
	}

	p.mu.Lock()
	p.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	p.mu.Unlock()

	if p.config.PreferSimilar && len(seeds) > 0 {
		artists := make(map[string]bool)
		genres := make(map[string]bool)
		for _, s := range seeds {
			artists[s.MainArtist()] = true
			if s.Genre != "" {
				genres[s.Genre] = true
			}
		}
		score := func(t track.Track) int {
			s := 0
			if artists[t.MainArtist()] {
				s += 2
			}
			if genres[t.Genre] {
				s++
			}
			return s
		}
		slices.SortStableFunc(pool, func(a, b track.Track) int { return score(b) - score(a) })
	}

	pool = dedupe(pool)
	if len(pool) > count {
		pool = pool[:count]
	}
	return pool, nil
}

// Name returns the provider name.
func (p *CatalogProvider) Name() string {
	return "catalog"
}
