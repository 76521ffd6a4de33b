// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig            `yaml:"server"`
	Store    StoreConfig             `yaml:"store"`
	Catalog  CatalogConfig           `yaml:"catalog"`
	Playback PlaybackConfig          `yaml:"playback"`
	Auth     AuthConfig              `yaml:"auth"`
	Stats    StatsConfig             `yaml:"stats"`
	Filters  map[string]FilterConfig `yaml:"filters"`
	Messages MessagesConfig          `yaml:"messages"`
	Spotify  SpotifyConfig           `yaml:"spotify"`
	Autoplay AutoplayConfig          `yaml:"autoplay"`
	LastFM   LastFMConfig            `yaml:"lastfm"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr     string      `yaml:"addr" default:":8080"`
	APIToken string      `yaml:"api_token"`
	Hooks    HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string      `yaml:"backend" default:"file" validate:"oneof=memory file sqlite redis"`
	Path    string      `yaml:"path" default:"data/vibeflow.json" validate:"required_if=Backend file,required_if=Backend sqlite"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig represents Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0,lte=15"`
	Prefix   string `yaml:"prefix" default:"vibeflow:"`
}

// CatalogConfig describes where the starting queue comes from.
type CatalogConfig struct {
	Path            string `yaml:"path"`             // YAML catalog; the built-in sample tracks when empty
	SpotifyPlaylist string `yaml:"spotify_playlist"` // Imported after start when Spotify is configured
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	RestartThresholdPercent float64 `yaml:"restart_threshold_percent" default:"10" validate:"gte=0,lte=100"`
	ErrorAdvanceDelayMs     int     `yaml:"error_advance_delay_ms" default:"2000" validate:"gte=0,lte=30000"`
	EventBuffer             int     `yaml:"event_buffer" default:"64" validate:"gte=1"`
	ShuffleSeed             int64   `yaml:"shuffle_seed"`
}

// ErrorAdvanceDelay returns the delay before skipping a track that failed to play.
func (p PlaybackConfig) ErrorAdvanceDelay() time.Duration {
	return time.Duration(p.ErrorAdvanceDelayMs) * time.Millisecond
}

// AuthConfig represents the sign-in settings.
type AuthConfig struct {
	DemoEmail         string `yaml:"demo_email" default:"demo@example.com" validate:"omitempty,email"`
	DemoPassword      string `yaml:"demo_password" default:"demo1234"`
	MinPasswordLength int    `yaml:"min_password_length" default:"6" validate:"gte=1"`
}

// StatsConfig represents listening history settings.
type StatsConfig struct {
	HistoryLimit int `yaml:"history_limit" default:"1000" validate:"gte=1"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MessagesConfig represents user-facing messages for queue rejections.
type MessagesConfig struct {
	DefaultError          string `yaml:"default_error" default:"The track could not be added"`
	DuplicateTrack        string `yaml:"duplicate_track" default:"This song is already in the queue"`
	DurationLimitExceeded string `yaml:"duration_limit_exceeded" default:"This track is too short or too long"`
	MarketRestriction     string `yaml:"market_restriction" default:"This track is not available in your region"`
	TrackNotFound         string `yaml:"track_not_found" default:"Track not found"`
}

// SpotifyConfig represents Spotify API configuration.
// Spotify import is disabled when credentials are missing.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret" validate:"required_with=ClientID"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"US"`
}

// Enabled reports whether Spotify credentials are configured.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// AutoplayConfig controls the recommendations appended when the queue ends.
// The listener's autoplay preference must also be on.
type AutoplayConfig struct {
	Disabled       bool                     `yaml:"disabled"`
	CandidateCount int                      `yaml:"candidate_count" default:"5" validate:"gte=1,lte=50"`
	SeedTrackCount int                      `yaml:"seed_track_count" default:"3" validate:"gte=1,lte=20"`
	Providers      []AutoplayProviderConfig `yaml:"providers" validate:"dive"`
}

// AutoplayProviderConfig configures one recommendation provider.
type AutoplayProviderConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=catalog lastfm"`
	DisplayName string         `yaml:"display_name"`
	Settings    map[string]any `yaml:"settings,omitempty"`
}

// LastFMConfig represents Last.fm API configuration.
type LastFMConfig struct {
	APIKey string `yaml:"api_key"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse builds a configuration from YAML content.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() (*Config, error) {
	return Parse([]byte("{}"))
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("VIBEFLOW_API_TOKEN"); v != "" {
		c.Server.APIToken = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Store.Redis.Password = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFM.APIKey = v
	}
}

// GetMessage returns the message for the given rejection code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "duplicate_track":
		return c.Messages.DuplicateTrack
	case "duration_limit_exceeded":
		return c.Messages.DurationLimitExceeded
	case "market_restriction":
		return c.Messages.MarketRestriction
	case "track_not_found":
		return c.Messages.TrackNotFound
	default:
		return c.Messages.DefaultError
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	for i, p := range c.Autoplay.Providers {
		if p.Type == "lastfm" && c.LastFM.APIKey == "" {
			return errors.Newf("autoplay provider %d: lastfm requires lastfm.api_key", i)
		}
	}
	c.Spotify.Market = strings.ToUpper(c.Spotify.Market)
	return nil
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
