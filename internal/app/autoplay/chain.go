package autoplay

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/domain/track"
)

// Candidate is a recommended track with the provider that found it.
type Candidate struct {
	Track       track.Track
	DisplayName string
}

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// Chain asks providers in order until enough candidates are collected.
type Chain struct {
	providers []ProviderWithMetadata
}

// NewChain creates a new provider chain.
func NewChain(providers []ProviderWithMetadata) *Chain {
	return &Chain{providers: providers}
}

// Providers returns the providers in the order they are asked.
func (c *Chain) Providers() []ProviderWithMetadata {
	return c.providers
}

// GetCandidates collects up to count candidates. A failing provider is
// skipped; later providers never return a track an earlier one returned.
func (c *Chain) GetCandidates(ctx context.Context, count int, seeds []track.Track, exclude map[string]bool) ([]Candidate, error) {
	if count <= 0 {
		return nil, nil
	}

	excluded := make(map[string]bool, len(exclude))
	for k, v := range exclude {
		excluded[k] = v
	}

	var all []Candidate
	var errs error
	for i, pm := range c.providers {
		need := count - len(all)
		if need <= 0 {
			break
		}

		zlog.Debug().Msgf("autoplay: trying provider: index=%d total=%d name=%s type=%s need=%d",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name(), need)

		candidates, err := pm.Provider.GetCandidates(ctx, need, seeds, excluded)
		if err != nil {
			zlog.Warn().Msgf("autoplay: provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "provider %s", pm.DisplayName))
			continue
		}

		for _, t := range candidates {
			if excluded[t.ID] || len(all) >= count {
				continue
			}
			all = append(all, Candidate{Track: t, DisplayName: pm.DisplayName})
			excluded[t.ID] = true
		}

		zlog.Info().Msgf("autoplay: provider returned candidates: provider=%s count=%d total_so_far=%d",
			pm.DisplayName, len(candidates), len(all))
	}

	if len(all) == 0 && errs != nil {
		return nil, errs
	}
	return all, nil
}
