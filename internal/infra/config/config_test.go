package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) Config {
	t.Helper()
	var cfg Config
	require.NoError(t, defaults.Set(&cfg))
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "defaults are valid",
			modify: func(c *Config) {},
		},
		{
			name: "spotify configured",
			modify: func(c *Config) {
				c.Spotify.ClientID = "test-client-id"
				c.Spotify.ClientSecret = "test-client-secret"
			},
		},
		{
			name: "spotify client id without secret",
			modify: func(c *Config) {
				c.Spotify.ClientID = "test-client-id"
			},
			wantErr: true,
			errMsg:  "ClientSecret",
		},
		{
			name: "invalid market length",
			modify: func(c *Config) {
				c.Spotify.Market = "JAPAN"
			},
			wantErr: true,
			errMsg:  "Market",
		},
		{
			name: "unknown store backend",
			modify: func(c *Config) {
				c.Store.Backend = "postgres"
			},
			wantErr: true,
			errMsg:  "Backend",
		},
		{
			name: "restart threshold above 100",
			modify: func(c *Config) {
				c.Playback.RestartThresholdPercent = 150
			},
			wantErr: true,
			errMsg:  "RestartThresholdPercent",
		},
		{
			name: "redis db out of range",
			modify: func(c *Config) {
				c.Store.Redis.DB = 16
			},
			wantErr: true,
			errMsg:  "DB",
		},
		{
			name: "malformed demo email",
			modify: func(c *Config) {
				c.Auth.DemoEmail = "demo"
			},
			wantErr: true,
			errMsg:  "DemoEmail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.modify(&cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "data/vibeflow.json", cfg.Store.Path)
	assert.Equal(t, "vibeflow:", cfg.Store.Redis.Prefix)
	assert.Equal(t, 10.0, cfg.Playback.RestartThresholdPercent)
	assert.Equal(t, 2*time.Second, cfg.Playback.ErrorAdvanceDelay())
	assert.Equal(t, 64, cfg.Playback.EventBuffer)
	assert.Equal(t, "demo@example.com", cfg.Auth.DemoEmail)
	assert.Equal(t, 6, cfg.Auth.MinPasswordLength)
	assert.Equal(t, 1000, cfg.Stats.HistoryLimit)
	assert.Equal(t, "US", cfg.Spotify.Market)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
store:
  backend: sqlite
  path: data/test.db
playback:
  restart_threshold_percent: 5
  shuffle_seed: 42
filters:
  duplicate_track_filter:
    enabled: true
  duration_limit_filter:
    enabled: false
    settings:
      max_minutes: 10
spotify:
  market: jp
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, 5.0, cfg.Playback.RestartThresholdPercent)
	assert.Equal(t, int64(42), cfg.Playback.ShuffleSeed)
	assert.Equal(t, "JP", cfg.Spotify.Market)
	assert.True(t, cfg.IsFilterEnabled("duplicate_track_filter"))
	assert.False(t, cfg.IsFilterEnabled("duration_limit_filter"))
	assert.False(t, cfg.IsFilterEnabled("market_filter"))
	assert.Equal(t, 10, cfg.GetFilterSettings("duration_limit_filter")["max_minutes"])

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "env-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")
	t.Setenv("VIBEFLOW_API_TOKEN", "env-token")
	t.Setenv("REDIS_PASSWORD", "env-redis")

	cfg, err := Parse([]byte(`
server:
  api_token: file-token
spotify:
  client_id: file-id
`))
	require.NoError(t, err)

	assert.Equal(t, "env-id", cfg.Spotify.ClientID)
	assert.Equal(t, "env-secret", cfg.Spotify.ClientSecret)
	assert.True(t, cfg.Spotify.Enabled())
	assert.Equal(t, "env-token", cfg.Server.APIToken)
	assert.Equal(t, "env-redis", cfg.Store.Redis.Password)
}

func TestConfig_GetMessage(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "This song is already in the queue", cfg.GetMessage("duplicate_track"))
	assert.Equal(t, cfg.Messages.DurationLimitExceeded, cfg.GetMessage("duration_limit_exceeded"))
	assert.Equal(t, cfg.Messages.DefaultError, cfg.GetMessage("something_else"))
}
