package autoplay

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/infra/lastfm"
)

// LastFmClient defines the Last.fm operations the provider needs.
type LastFmClient interface {
	GetSimilarTracks(ctx context.Context, trackName, artistName string, limit int) ([]lastfm.SimilarTrack, error)
	GetTopTags(ctx context.Context, trackName, artistName string, limit int) ([]lastfm.Tag, error)
	GetTopTracks(ctx context.Context, tagName string, limit int) ([]lastfm.TopTrack, error)
	GetChartTopTracks(ctx context.Context, limit int) ([]lastfm.TopTrack, error)
}

type LastFmProviderConfig struct {
	SeedTrackCount int     `yaml:"seed_track_count" mapstructure:"seed_track_count" default:"3" validate:"gte=1"`
	TagCount       int     `yaml:"tag_count" mapstructure:"tag_count" default:"3" validate:"gte=1"`
	TagWeight      float64 `yaml:"tag_weight" mapstructure:"tag_weight" default:"0.4" validate:"gte=0,lte=1"`
	SimilarWeight  float64 `yaml:"similar_weight" mapstructure:"similar_weight" default:"0.6" validate:"gte=0,lte=1"`
}

// LastFmProvider recommends tracks from Last.fm similarity and tags,
// resolved to playable tracks through a TrackSearcher.
type LastFmProvider struct {
	lastfm   LastFmClient
	searcher TrackSearcher
	config   LastFmProviderConfig

	mu          sync.Mutex
	searchCache map[string]*track.Track
	rng         *rand.Rand
}

type scoredTrack struct {
	track track.Track
	score float64
}

// NewLastFmProvider creates a new LastFmProvider.
func NewLastFmProvider(client LastFmClient, searcher TrackSearcher, settings map[string]any) (*LastFmProvider, error) {
	if client == nil {
		return nil, errors.New("last.fm client is required")
	}
	if searcher == nil {
		return nil, errors.New("track search is required")
	}

	var config LastFmProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	if sum := config.TagWeight + config.SimilarWeight; sum < 0.999 || sum > 1.001 {
		return nil, errors.New("tag weight and similar weight must sum to 1.0")
	}

	return &LastFmProvider{
		lastfm:      client,
		searcher:    searcher,
		config:      config,
		searchCache: make(map[string]*track.Track),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// GetCandidates scores tracks found by both strategies and returns a random
// pick from the best 2*count. Without seeds the global chart is used.
func (p *LastFmProvider) GetCandidates(ctx context.Context, count int, seeds []track.Track, exclude map[string]bool) ([]track.Track, error) {
	if count <= 0 {
		return []track.Track{}, nil
	}

	if len(seeds) > p.config.SeedTrackCount {
		seeds = seeds[:p.config.SeedTrackCount]
	}
	if len(seeds) == 0 {
		return p.chartCandidates(ctx, count, exclude)
	}

	scores := make(map[string]*scoredTrack)
	add := func(tracks []track.Track, weight float64) {
		for _, t := range tracks {
			if exclude[t.ID] {
				continue
			}
			if s, ok := scores[t.ID]; ok {
				s.score += weight
				continue
			}
			scores[t.ID] = &scoredTrack{track: t, score: weight}
		}
	}
	add(p.tagCandidates(ctx, seeds), p.config.TagWeight)
	add(p.similarCandidates(ctx, seeds), p.config.SimilarWeight)

	if len(scores) == 0 {
		return []track.Track{}, nil
	}

	scored := make([]scoredTrack, 0, len(scores))
	for _, s := range scores {
		scored = append(scored, *s)
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].track.ID < scored[j].track.ID
	})

	pool := scored[:min(count*2, len(scored))]
	p.mu.Lock()
	p.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	p.mu.Unlock()

	result := make([]track.Track, 0, count)
	for i := 0; i < count && i < len(pool); i++ {
		result = append(result, pool[i].track)
	}
	return result, nil
}

// Name returns the provider name.
func (p *LastFmProvider) Name() string {
	return "lastfm"
}

// tagCandidates resolves the top tracks of the seeds' most common tags.
func (p *LastFmProvider) tagCandidates(ctx context.Context, seeds []track.Track) []track.Track {
	tagCounts := make(map[string]int)
	for _, seed := range seeds {
		tags, err := p.lastfm.GetTopTags(ctx, seed.Title, seed.MainArtist(), 10)
		if err != nil {
			zlog.Debug().Msgf("autoplay: tags lookup failed: track=%s: %v", seed.ID, err)
			continue
		}
		for _, tag := range tags {
			tagCounts[tag.Name] += tag.Count
		}
	}

	var candidates []track.Track
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, tag := range topTags(tagCounts, p.config.TagCount) {
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			top, err := p.lastfm.GetTopTracks(ctx, tag, 10)
			if err != nil {
				return
			}
			found := p.resolveAll(ctx, top)
			mu.Lock()
			candidates = append(candidates, found...)
			mu.Unlock()
		}(tag)
	}
	wg.Wait()

	return dedupe(candidates)
}

// similarCandidates resolves the tracks Last.fm reports as similar to the seeds.
func (p *LastFmProvider) similarCandidates(ctx context.Context, seeds []track.Track) []track.Track {
	var candidates []track.Track
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, seed := range seeds {
		wg.Add(1)
		go func(s track.Track) {
			defer wg.Done()
			similar, err := p.lastfm.GetSimilarTracks(ctx, s.Title, s.MainArtist(), 10)
			if err != nil {
				zlog.Debug().Msgf("autoplay: similar lookup failed: track=%s: %v", s.ID, err)
				return
			}
			refs := make([]lastfm.TopTrack, len(similar))
			for i, sim := range similar {
				refs[i] = lastfm.TopTrack{Name: sim.Name, Artist: sim.Artist}
			}
			found := p.resolveAll(ctx, refs)
			mu.Lock()
			candidates = append(candidates, found...)
			mu.Unlock()
		}(seed)
	}
	wg.Wait()

	return dedupe(candidates)
}

// chartCandidates is the fallback when nothing has been played yet.
func (p *LastFmProvider) chartCandidates(ctx context.Context, count int, exclude map[string]bool) ([]track.Track, error) {
	chart, err := p.lastfm.GetChartTopTracks(ctx, 50)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chart")
	}

	p.mu.Lock()
	p.rng.Shuffle(len(chart), func(i, j int) { chart[i], chart[j] = chart[j], chart[i] })
	p.mu.Unlock()

	var candidates []track.Track
	for _, ref := range chart {
		if t := p.resolve(ctx, ref.Name, ref.Artist); t != nil && !exclude[t.ID] {
			candidates = append(candidates, *t)
		}
		if len(candidates) >= count {
			break
		}
	}
	return dedupe(candidates), nil
}

func (p *LastFmProvider) resolveAll(ctx context.Context, refs []lastfm.TopTrack) []track.Track {
	var found []track.Track
	for _, ref := range refs {
		if t := p.resolve(ctx, ref.Name, ref.Artist); t != nil {
			found = append(found, *t)
		}
	}
	return found
}

// resolve searches for a playable track. Misses are cached too.
func (p *LastFmProvider) resolve(ctx context.Context, name, artist string) *track.Track {
	key := name + "\x00" + artist

	p.mu.Lock()
	if t, ok := p.searchCache[key]; ok {
		p.mu.Unlock()
		return t
	}
	p.mu.Unlock()

	var found *track.Track
	results, err := p.searcher.Search(ctx, fmt.Sprintf("track:%s artist:%s", name, artist), 1)
	if err == nil && len(results) > 0 && results[0].IsValid() {
		found = &results[0]
	}

	p.mu.Lock()
	p.searchCache[key] = found
	p.mu.Unlock()
	return found
}

// topTags returns the n tag names with the highest counts.
func topTags(counts map[string]int, n int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
