// Package spotify provides a client for the Spotify API used to import tracks
// and playlists into the player queue.
package spotify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/osa030/vibeflow/internal/domain/track"
)

// IDPrefix marks queue ids of tracks imported from Spotify.
const IDPrefix = "spotify:"

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string // Optional; client credentials are used when empty
	Market       string
}

// New creates a new Spotify client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("spotify credentials are required")
	}

	var client *spotify.Client
	if cfg.RefreshToken != "" {
		auth := spotifyauth.New(
			spotifyauth.WithClientID(cfg.ClientID),
			spotifyauth.WithClientSecret(cfg.ClientSecret),
			spotifyauth.WithScopes(spotifyauth.ScopePlaylistReadPrivate),
		)
		client = spotify.New(auth.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken}))
	} else {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     spotifyauth.TokenURL,
		}
		client = spotify.New(cc.Client(ctx))
	}

	market := cfg.Market
	if market == "" {
		market = "US"
	}

	return &Client{
		client:     client,
		market:     market,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// Market returns the market used for availability checks.
func (c *Client) Market() string {
	return c.market
}

// GetTrack retrieves track information by ID, URL, or URI.
func (c *Client) GetTrack(ctx context.Context, trackID string) (*track.Track, error) {
	id := extractTrackID(trackID)
	if id == "" {
		return nil, errors.New("invalid track id")
	}

	var result *spotify.FullTrack
	err := c.retry(ctx, func() error {
		t, err := c.client.GetTrack(ctx, spotify.ID(id), spotify.Market(c.market))
		if err != nil {
			return err
		}
		result = t
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get track")
	}

	t := c.convertTrack(result)
	return &t, nil
}

// Search searches for tracks on Spotify.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("search query is required")
	}
	limit = max(1, min(limit, 50))

	var result *spotify.SearchResult
	err := c.retry(ctx, func() error {
		r, err := c.client.Search(ctx, query, spotify.SearchTypeTrack,
			spotify.Limit(limit),
			spotify.Market(c.market),
		)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to search")
	}
	if result.Tracks == nil {
		return []track.Track{}, nil
	}

	tracks := make([]track.Track, 0, len(result.Tracks.Tracks))
	for i := range result.Tracks.Tracks {
		tracks = append(tracks, c.convertTrack(&result.Tracks.Tracks[i]))
	}
	return tracks, nil
}

// GetPlaylistTracks retrieves all tracks from a playlist.
func (c *Client) GetPlaylistTracks(ctx context.Context, playlistURL string) ([]track.Track, error) {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return nil, errors.New("invalid playlist URL")
	}

	var tracks []track.Track
	offset := 0
	limit := 100

	for {
		var page *spotify.PlaylistItemPage
		err := c.retry(ctx, func() error {
			p, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
				spotify.Limit(limit),
				spotify.Offset(offset),
				spotify.Market(c.market),
			)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get playlist items")
		}

		for _, item := range page.Items {
			// Episodes have no Track.
			if item.Track.Track != nil && item.Track.Track.ID != "" {
				tracks = append(tracks, c.convertTrack(item.Track.Track))
			}
		}

		if len(page.Items) < limit {
			break
		}
		offset += limit
	}

	zlog.Debug().Msgf("spotify: fetched %d tracks from playlist %s", len(tracks), playlistID)
	return tracks, nil
}

// CheckPlaylistExists checks if a playlist exists without fetching all tracks.
func (c *Client) CheckPlaylistExists(ctx context.Context, playlistURL string) error {
	playlistID := extractPlaylistID(playlistURL)
	if playlistID == "" {
		return errors.New("invalid playlist URL")
	}

	err := c.retry(ctx, func() error {
		_, err := c.client.GetPlaylistItems(ctx, spotify.ID(playlistID),
			spotify.Limit(1),
			spotify.Offset(0),
			spotify.Market(c.market),
		)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "playlist does not exist or is not accessible")
	}

	return nil
}

// convertTrack converts a Spotify FullTrack to a queue track.
// The audio source is the 30 second preview when Spotify offers one, else
// the web player link.
func (c *Client) convertTrack(t *spotify.FullTrack) track.Track {
	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	var coverArt string
	if len(t.Album.Images) > 0 {
		coverArt = t.Album.Images[0].URL
	}

	markets := make([]string, len(t.AvailableMarkets))
	for i, m := range t.AvailableMarkets {
		markets[i] = string(m)
	}
	// Requests carry the market, so an empty list means "available there".
	if len(markets) == 0 && c.market != "" {
		markets = append(markets, c.market)
	}

	audioURL := t.PreviewURL
	if audioURL == "" {
		audioURL = GetTrackURL(string(t.ID))
	}

	return track.Track{
		ID:          IDPrefix + string(t.ID),
		Title:       t.Name,
		Artist:      strings.Join(artists, ", "),
		Album:       t.Album.Name,
		Duration:    time.Duration(t.Duration) * time.Millisecond,
		CoverArtURL: coverArt,
		AudioURL:    audioURL,
		Year:        releaseYear(t.Album.ReleaseDate),
		Markets:     markets,
		IsPlayable:  t.IsPlayable,
	}
}

// GetTrackURL returns the Spotify URL for a track.
func GetTrackURL(trackID string) string {
	return fmt.Sprintf("https://open.spotify.com/track/%s", trackID)
}

// releaseYear parses the year out of "2021", "2021-05" or "2021-05-14".
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// retry retries an operation with linear backoff.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "retry aborted")
			case <-time.After(c.retryDelay * time.Duration(i+1)):
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// IsSpotifyRef reports whether input names a Spotify track: a queue id with
// IDPrefix, a spotify:track URI or an open.spotify.com track URL.
func IsSpotifyRef(input string) bool {
	input = strings.TrimSpace(input)
	return strings.HasPrefix(input, IDPrefix) ||
		(strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/"))
}

// extractPlaylistID extracts the playlist ID from a Spotify playlist URL or URI.
func extractPlaylistID(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "spotify:playlist:") {
		return strings.TrimPrefix(input, "spotify:playlist:")
	}

	// https://open.spotify.com/playlist/ID or https://open.spotify.com/intl-XX/playlist/ID
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/playlist/") {
		parts := strings.Split(input, "/playlist/")
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	return input
}

// extractTrackID extracts the track ID from a Spotify track URL, URI or queue id.
func extractTrackID(input string) string {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "spotify:track:") {
		return strings.TrimPrefix(input, "spotify:track:")
	}
	if strings.HasPrefix(input, IDPrefix) {
		return strings.TrimPrefix(input, IDPrefix)
	}

	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, "/track/") {
		parts := strings.Split(input, "/track/")
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	return input
}
