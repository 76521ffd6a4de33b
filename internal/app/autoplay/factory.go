package autoplay

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/infra/config"
	"github.com/osa030/vibeflow/internal/infra/lastfm"
)

// Dependencies are the track sources providers draw from.
type Dependencies struct {
	Known    func() []track.Track // Tracks the session can resolve
	Searcher TrackSearcher        // Nil when Spotify is not configured
	LastFm   LastFmClient         // Overrides the client built from config
	Seed     int64                // Random seed for the catalog provider
}

// NewChainFromConfig creates a provider chain from configuration. Without
// configured providers the chain recommends from the local catalog only.
// Providers whose track source is unavailable are skipped with a warning.
func NewChainFromConfig(cfg *config.Config, deps Dependencies) (*Chain, error) {
	providerCfgs := cfg.Autoplay.Providers
	if len(providerCfgs) == 0 {
		providerCfgs = []config.AutoplayProviderConfig{{Type: "catalog", DisplayName: "Your library"}}
	}

	var providers []ProviderWithMetadata
	for i, pcfg := range providerCfgs {
		var provider Provider
		var err error
		zlog.Debug().Msgf("creating autoplay provider: index=%d type=%s settings=%+v", i+1, pcfg.Type, pcfg.Settings)

		switch pcfg.Type {
		case "catalog":
			provider, err = NewCatalogProvider(deps.Known, pcfg.Settings, deps.Seed)

		case "lastfm":
			if deps.Searcher == nil {
				zlog.Warn().Msgf("autoplay provider %d (lastfm) needs Spotify to resolve tracks, skipping", i+1)
				continue
			}
			client := deps.LastFm
			if client == nil {
				client, err = lastfm.New(lastfm.Config{APIKey: cfg.LastFM.APIKey})
				if err != nil {
					return nil, errors.Wrapf(err, "failed to create last.fm client (index %d)", i)
				}
			}
			provider, err = NewLastFmProvider(client, deps.Searcher, pcfg.Settings)

		default:
			return nil, errors.Newf("unsupported provider type: %s (provider index %d)", pcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		name := pcfg.DisplayName
		if name == "" {
			name = provider.Name()
		}
		providers = append(providers, ProviderWithMetadata{Provider: provider, DisplayName: name})
		zlog.Info().Msgf("registered autoplay provider: index=%d type=%s display_name=%s", i+1, pcfg.Type, name)
	}

	return NewChain(providers), nil
}
