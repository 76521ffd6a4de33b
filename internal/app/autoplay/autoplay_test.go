package autoplay

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/infra/config"
	"github.com/osa030/vibeflow/internal/infra/lastfm"
)

func newTrack(id, artist, genre string) track.Track {
	return track.Track{ID: id, Title: "Song " + id, Artist: artist, Genre: genre, Duration: 3 * time.Minute}
}

func ids(tracks []track.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

type fakeProvider struct {
	name   string
	tracks []track.Track
	err    error
	calls  atomic.Int32
}

func (f *fakeProvider) GetCandidates(_ context.Context, count int, _ []track.Track, exclude map[string]bool) ([]track.Track, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	var out []track.Track
	for _, t := range f.tracks {
		if !exclude[t.ID] && len(out) < count {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeProvider) Name() string { return f.name }

func TestChain_GetCandidates(t *testing.T) {
	first := &fakeProvider{name: "first", tracks: []track.Track{newTrack("a", "A", ""), newTrack("b", "B", "")}}
	broken := &fakeProvider{name: "broken", err: errors.New("boom")}
	second := &fakeProvider{name: "second", tracks: []track.Track{newTrack("b", "B", ""), newTrack("c", "C", ""), newTrack("d", "D", "")}}

	chain := NewChain([]ProviderWithMetadata{
		{Provider: first, DisplayName: "First"},
		{Provider: broken, DisplayName: "Broken"},
		{Provider: second, DisplayName: "Second"},
	})

	got, err := chain.GetCandidates(context.Background(), 3, nil, map[string]bool{"a": true})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].Track.ID)
	assert.Equal(t, "First", got[0].DisplayName)
	assert.Equal(t, "c", got[1].Track.ID)
	assert.Equal(t, "d", got[2].Track.ID)
	assert.Equal(t, "Second", got[2].DisplayName)
}

func TestChain_StopsWhenSatisfied(t *testing.T) {
	first := &fakeProvider{name: "first", tracks: []track.Track{newTrack("a", "A", ""), newTrack("b", "B", "")}}
	second := &fakeProvider{name: "second", tracks: []track.Track{newTrack("c", "C", "")}}
	chain := NewChain([]ProviderWithMetadata{{Provider: first}, {Provider: second}})

	got, err := chain.GetCandidates(context.Background(), 2, nil, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(0), second.calls.Load())
}

func TestChain_AllFailed(t *testing.T) {
	chain := NewChain([]ProviderWithMetadata{
		{Provider: &fakeProvider{name: "x", err: errors.New("down")}, DisplayName: "X"},
	})
	_, err := chain.GetCandidates(context.Background(), 2, nil, nil)
	assert.Error(t, err)

	got, err := NewChain(nil).GetCandidates(context.Background(), 2, nil, nil)
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestCatalogProvider(t *testing.T) {
	known := []track.Track{
		newTrack("a", "Artist A", "Pop"),
		newTrack("b", "Artist B", "Rock"),
		newTrack("c", "Artist A", "Rock"),
		newTrack("d", "Artist D", "Jazz"),
		newTrack("e", "Artist E", "Pop"),
	}
	source := func() []track.Track { return known }

	t.Run("prefers seed artists and genres", func(t *testing.T) {
		p, err := NewCatalogProvider(source, nil, 1)
		require.NoError(t, err)

		seeds := []track.Track{newTrack("a", "Artist A", "Pop")}
		got, err := p.GetCandidates(context.Background(), 2, seeds, map[string]bool{"a": true})
		require.NoError(t, err)
		// c shares the artist (2), e shares the genre (1)
		assert.Equal(t, []string{"c", "e"}, ids(got))
	})

	t.Run("random order when disabled", func(t *testing.T) {
		p, err := NewCatalogProvider(source, map[string]any{"prefer_similar": false}, 1)
		require.NoError(t, err)
		assert.False(t, p.config.PreferSimilar)

		got, err := p.GetCandidates(context.Background(), 10, nil, map[string]bool{"a": true, "b": true})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"c", "d", "e"}, ids(got))
	})

	t.Run("nothing left", func(t *testing.T) {
		p, err := NewCatalogProvider(source, nil, 1)
		require.NoError(t, err)
		exclude := map[string]bool{"a": true, "b": true, "c": true, "d": true, "e": true}
		got, err := p.GetCandidates(context.Background(), 3, nil, exclude)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	_, err := NewCatalogProvider(nil, nil, 1)
	assert.Error(t, err)
}

type fakeLastFm struct {
	similar map[string][]lastfm.SimilarTrack
	tags    map[string][]lastfm.Tag
	top     map[string][]lastfm.TopTrack
	chart   []lastfm.TopTrack
}

func (f *fakeLastFm) GetSimilarTracks(_ context.Context, name, _ string, _ int) ([]lastfm.SimilarTrack, error) {
	return f.similar[name], nil
}

func (f *fakeLastFm) GetTopTags(_ context.Context, name, _ string, _ int) ([]lastfm.Tag, error) {
	return f.tags[name], nil
}

func (f *fakeLastFm) GetTopTracks(_ context.Context, tag string, _ int) ([]lastfm.TopTrack, error) {
	return f.top[tag], nil
}

func (f *fakeLastFm) GetChartTopTracks(_ context.Context, _ int) ([]lastfm.TopTrack, error) {
	return f.chart, nil
}

// fakeSearcher resolves "track:<name> artist:<artist>" queries by name.
type fakeSearcher struct {
	byName  map[string]track.Track
	queries atomic.Int32
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]track.Track, error) {
	f.queries.Add(1)
	name := strings.TrimPrefix(strings.SplitN(query, " artist:", 2)[0], "track:")
	if t, ok := f.byName[name]; ok {
		return []track.Track{t}, nil
	}
	return nil, nil
}

func TestLastFmProvider(t *testing.T) {
	searcher := &fakeSearcher{byName: map[string]track.Track{
		"Both":    newTrack("spotify:both", "X", ""),
		"Similar": newTrack("spotify:similar", "Y", ""),
		"Tagged":  newTrack("spotify:tagged", "Z", ""),
		"Queued":  newTrack("spotify:queued", "Q", ""),
		"Charted": newTrack("spotify:chart", "C", ""),
	}}
	client := &fakeLastFm{
		similar: map[string][]lastfm.SimilarTrack{
			"Song seed": {{Name: "Both"}, {Name: "Similar"}, {Name: "Queued"}, {Name: "Unknown"}},
		},
		tags: map[string][]lastfm.Tag{"Song seed": {{Name: "rock", Count: 10}}},
		top:  map[string][]lastfm.TopTrack{"rock": {{Name: "Both"}, {Name: "Tagged"}}},
		chart: []lastfm.TopTrack{{Name: "Charted"}},
	}

	p, err := NewLastFmProvider(client, searcher, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, p.config.SeedTrackCount)

	seeds := []track.Track{newTrack("seed", "Seed Artist", "")}
	exclude := map[string]bool{"spotify:queued": true}

	got, err := p.GetCandidates(context.Background(), 1, seeds, exclude)
	require.NoError(t, err)
	// Pool is the best two: both (1.0) and similar (0.6)
	require.Len(t, got, 1)
	assert.Contains(t, []string{"spotify:both", "spotify:similar"}, got[0].ID)

	got, err = p.GetCandidates(context.Background(), 10, seeds, exclude)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"spotify:both", "spotify:similar", "spotify:tagged"}, ids(got))

	queries := searcher.queries.Load()
	_, err = p.GetCandidates(context.Background(), 10, seeds, exclude)
	require.NoError(t, err)
	assert.Equal(t, queries, searcher.queries.Load(), "lookups are cached")

	chart, err := p.GetCandidates(context.Background(), 5, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"spotify:chart"}, ids(chart))
}

func TestNewLastFmProvider_Validation(t *testing.T) {
	_, err := NewLastFmProvider(&fakeLastFm{}, &fakeSearcher{}, map[string]any{"tag_weight": 0.9, "similar_weight": 0.9})
	assert.Error(t, err)

	_, err = NewLastFmProvider(nil, &fakeSearcher{}, nil)
	assert.Error(t, err)

	_, err = NewLastFmProvider(&fakeLastFm{}, nil, nil)
	assert.Error(t, err)
}

func TestNewChainFromConfig(t *testing.T) {
	known := func() []track.Track { return nil }

	t.Run("defaults to catalog", func(t *testing.T) {
		cfg, err := config.Default()
		require.NoError(t, err)

		chain, err := NewChainFromConfig(cfg, Dependencies{Known: known})
		require.NoError(t, err)
		require.Len(t, chain.Providers(), 1)
		assert.Equal(t, "catalog", chain.Providers()[0].Provider.Name())
	})

	t.Run("lastfm skipped without search", func(t *testing.T) {
		cfg, err := config.Parse([]byte(`
lastfm:
  api_key: key
autoplay:
  providers:
    - type: lastfm
      display_name: Similar on Last.fm
    - type: catalog
`))
		require.NoError(t, err)

		chain, err := NewChainFromConfig(cfg, Dependencies{Known: known})
		require.NoError(t, err)
		require.Len(t, chain.Providers(), 1)
		assert.Equal(t, "catalog", chain.Providers()[0].DisplayName)

		chain, err = NewChainFromConfig(cfg, Dependencies{Known: known, Searcher: &fakeSearcher{}, LastFm: &fakeLastFm{}})
		require.NoError(t, err)
		require.Len(t, chain.Providers(), 2)
		assert.Equal(t, "Similar on Last.fm", chain.Providers()[0].DisplayName)
	})
}
