// Package lastfm provides a client for the Last.fm API.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// DefaultBaseURL is the Last.fm API endpoint.
const DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

// Config represents Last.fm client configuration.
type Config struct {
	APIKey  string
	BaseURL string        // DefaultBaseURL when empty
	Timeout time.Duration // 10s when zero
}

// Client is a Last.fm API client. Tag lookups are cached for the lifetime
// of the client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	cacheMu sync.RWMutex
	cache   map[string]any
}

// SimilarTrack represents a similar track from Last.fm.
type SimilarTrack struct {
	Name   string
	Artist string
	Match  float64 // 0-1 similarity
}

// Tag represents a Last.fm tag.
type Tag struct {
	Name  string
	Count int
}

// TopTrack represents a top track for a tag or chart.
type TopTrack struct {
	Name   string
	Artist string
}

type artistRef struct {
	Name string `json:"name"`
}

type trackRef struct {
	Name   string    `json:"name"`
	Artist artistRef `json:"artist"`
	// Last.fm encodes numbers as strings in some responses
	Match json.Number `json:"match"`
}

type similarResponse struct {
	SimilarTracks struct {
		Track []trackRef `json:"track"`
	} `json:"similartracks"`
}

type topTagsResponse struct {
	TopTags struct {
		Tag []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"tag"`
	} `json:"toptags"`
}

type topTracksResponse struct {
	Tracks struct {
		Track []trackRef `json:"track"`
	} `json:"tracks"`
}

type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// New creates a new Last.fm client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("last.fm API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      make(map[string]any),
	}, nil
}

// GetSimilarTracks retrieves tracks similar to the given one.
// Reference: https://www.last.fm/api/show/track.getSimilar
func (c *Client) GetSimilarTracks(ctx context.Context, trackName, artistName string, limit int) ([]SimilarTrack, error) {
	if trackName == "" || artistName == "" {
		return nil, errors.New("track name and artist name are required")
	}

	params := url.Values{}
	params.Set("method", "track.getSimilar")
	params.Set("artist", artistName)
	params.Set("track", trackName)
	params.Set("limit", strconv.Itoa(clampLimit(limit, 20)))
	params.Set("autocorrect", "1")

	var response similarResponse
	if err := c.get(ctx, params, &response); err != nil {
		return nil, err
	}

	similar := make([]SimilarTrack, 0, len(response.SimilarTracks.Track))
	for _, t := range response.SimilarTracks.Track {
		match, _ := t.Match.Float64()
		similar = append(similar, SimilarTrack{Name: t.Name, Artist: t.Artist.Name, Match: match})
	}
	return similar, nil
}

// GetTopTags retrieves the top tags of a track.
// Reference: https://www.last.fm/api/show/track.getTopTags
func (c *Client) GetTopTags(ctx context.Context, trackName, artistName string, limit int) ([]Tag, error) {
	if trackName == "" || artistName == "" {
		return nil, errors.New("track name and artist name are required")
	}
	limit = clampLimit(limit, 10)

	cacheKey := fmt.Sprintf("tracktag:%s:%s:%d", artistName, trackName, limit)
	if tags, ok := cached[[]Tag](c, cacheKey); ok {
		return tags, nil
	}

	params := url.Values{}
	params.Set("method", "track.getTopTags")
	params.Set("artist", artistName)
	params.Set("track", trackName)
	params.Set("autocorrect", "1")

	var response topTagsResponse
	if err := c.get(ctx, params, &response); err != nil {
		return nil, err
	}

	tags := make([]Tag, 0, limit)
	for _, t := range response.TopTags.Tag {
		if len(tags) >= limit {
			break
		}
		tags = append(tags, Tag{Name: t.Name, Count: t.Count})
	}

	c.store(cacheKey, tags)
	return tags, nil
}

// GetTopTracks retrieves the top tracks of a tag.
// Reference: https://www.last.fm/api/show/tag.getTopTracks
func (c *Client) GetTopTracks(ctx context.Context, tagName string, limit int) ([]TopTrack, error) {
	if tagName == "" {
		return nil, errors.New("tag name is required")
	}
	limit = clampLimit(limit, 20)

	cacheKey := fmt.Sprintf("tagtracks:%s:%d", tagName, limit)
	if tracks, ok := cached[[]TopTrack](c, cacheKey); ok {
		return tracks, nil
	}

	params := url.Values{}
	params.Set("method", "tag.getTopTracks")
	params.Set("tag", tagName)
	params.Set("limit", strconv.Itoa(limit))

	var response topTracksResponse
	if err := c.get(ctx, params, &response); err != nil {
		return nil, err
	}

	tracks := toTopTracks(response.Tracks.Track)
	c.store(cacheKey, tracks)
	return tracks, nil
}

// GetChartTopTracks retrieves the global chart. It is not cached.
// Reference: https://www.last.fm/api/show/chart.getTopTracks
func (c *Client) GetChartTopTracks(ctx context.Context, limit int) ([]TopTrack, error) {
	params := url.Values{}
	params.Set("method", "chart.getTopTracks")
	params.Set("limit", strconv.Itoa(clampLimit(limit, 20)))

	var response topTracksResponse
	if err := c.get(ctx, params, &response); err != nil {
		return nil, err
	}
	return toTopTracks(response.Tracks.Track), nil
}

// get performs one API call and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")
	method := params.Get("method")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s: request failed", method)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		return errors.Errorf("last.fm API error %d: %s", apiErr.Error, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "%s: failed to parse response", method)
	}
	return nil
}

func cached[T any](c *Client, key string) (T, bool) {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	v, ok := c.cache[key].(T)
	if ok {
		zlog.Debug().Msgf("lastfm: cache hit: %s", key)
	}
	return v, ok
}

func (c *Client) store(key string, v any) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache[key] = v
}

func toTopTracks(refs []trackRef) []TopTrack {
	tracks := make([]TopTrack, 0, len(refs))
	for _, t := range refs {
		tracks = append(tracks, TopTrack{Name: t.Name, Artist: t.Artist.Name})
	}
	return tracks
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, 100)
}
