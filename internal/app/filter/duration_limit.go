package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// DurationLimitConfig represents the configuration for DurationLimitFilter.
type DurationLimitConfig struct {
	MinMinutes float64 `yaml:"min_minutes" mapstructure:"min_minutes" default:"1" validate:"gte=1"`
	MaxMinutes float64 `yaml:"max_minutes" mapstructure:"max_minutes" validate:"gte=0"`
}

// DurationLimitFilter keeps very short clips and very long mixes out of the queue.
type DurationLimitFilter struct {
	config *DurationLimitConfig
}

// NewDurationLimitFilter creates a new duration limit filter.
func NewDurationLimitFilter() *DurationLimitFilter {
	return &DurationLimitFilter{}
}

func (f *DurationLimitFilter) Name() string {
	return "duration_limit_filter"
}

func (f *DurationLimitFilter) Description() string {
	return "Rejects tracks shorter than min_minutes or longer than max_minutes (0 = no upper limit)"
}

func (f *DurationLimitFilter) ReturnCodes() []string {
	return []string{"duration_limit_exceeded"}
}

func (f *DurationLimitFilter) ValidateConfig(settings map[string]any) error {
	var config DurationLimitConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &config,
		TagName: "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	if config.MaxMinutes > 0 && config.MinMinutes > config.MaxMinutes {
		return errors.New("min_minutes cannot be greater than max_minutes")
	}
	f.config = &config
	zlog.Info().Msgf("filter: duration limit min=%.1fm max=%.1fm", config.MinMinutes, config.MaxMinutes)
	return nil
}

// AppliesTo limits the check to tracks the user adds; imported playlists are taken as curated.
func (f *DurationLimitFilter) AppliesTo(source Source) bool {
	return source == SourceUser
}

func (f *DurationLimitFilter) Check(ctx context.Context, req Request) Result {
	// Unconfigured filter accepts everything
	if f.config == nil {
		return Accept()
	}

	durationMinutes := req.Track.Duration.Minutes()

	if durationMinutes < f.config.MinMinutes {
		return Reject("duration_limit_exceeded")
	}

	if f.config.MaxMinutes > 0 && durationMinutes > f.config.MaxMinutes {
		return Reject("duration_limit_exceeded")
	}

	return Accept()
}

func init() {
	Register("duration_limit_filter", func() Filter {
		return &DurationLimitFilter{}
	})
}
