// Package preferences stores the listener's device preferences: volume,
// equalizer, visualizer, playback and display settings.
package preferences

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Quality levels for streaming and downloads.
const (
	QualityLow      = "low"
	QualityBalanced = "balanced"
	QualityHigh     = "high"
	QualityLossless = "lossless"
)

// Preferences is the persisted preference document.
type Preferences struct {
	Volume int  `json:"volume" default:"80" validate:"gte=0,lte=100"`
	Muted  bool `json:"muted"`

	Equalizer  EqualizerSettings  `json:"equalizer"`
	Effects    EffectSettings     `json:"effects"`
	Visualizer VisualizerSettings `json:"visualizer"`
	Playback   PlaybackSettings   `json:"playback"`
	Display    DisplaySettings    `json:"display"`
}

// EqualizerSettings holds the 10-band equalizer.
type EqualizerSettings struct {
	Enabled bool   `json:"enabled"`
	Preset  string `json:"preset" default:"flat"`
	Bands   []int  `json:"bands" default:"[0,0,0,0,0,0,0,0,0,0]" validate:"len=10,dive,gte=-12,lte=12"`
}

// EffectSettings holds the extra audio effects, each 0-100.
type EffectSettings struct {
	Reverb    int `json:"reverb" validate:"gte=0,lte=100"`
	BassBoost int `json:"bass_boost" validate:"gte=0,lte=100"`
	Clarity   int `json:"clarity" validate:"gte=0,lte=100"`
	Spatial   int `json:"spatial" validate:"gte=0,lte=100"`
}

// VisualizerSettings controls the spectrum visualizer.
type VisualizerSettings struct {
	Visible     bool   `json:"visible"`
	Style       string `json:"style" default:"bars" validate:"oneof=bars wave circles"`
	ColorScheme string `json:"color_scheme" default:"purple" validate:"required"`
	Sensitivity int    `json:"sensitivity" default:"50" validate:"gte=0,lte=100"`
}

// PlaybackSettings controls transitions and stream quality.
type PlaybackSettings struct {
	Autoplay         bool   `json:"autoplay" default:"true"`
	Crossfade        bool   `json:"crossfade" default:"true"`
	CrossfadeSeconds int    `json:"crossfade_seconds" default:"2" validate:"gte=0,lte=12"`
	StreamingQuality string `json:"streaming_quality" default:"balanced" validate:"oneof=low balanced high lossless"`
	DownloadQuality  string `json:"download_quality" default:"high" validate:"oneof=low balanced high lossless"`
}

// DisplaySettings controls the player layout.
type DisplaySettings struct {
	Theme         string `json:"theme" default:"dark" validate:"oneof=light dark system"`
	LyricsVisible bool   `json:"lyrics_visible" default:"true"`
	QueueVisible  bool   `json:"queue_visible"`
	ActivePanel   string `json:"active_panel" default:"lyrics" validate:"oneof=lyrics info visualizer"`
}

// Default returns the preferences of a fresh install.
func Default() Preferences {
	var p Preferences
	// defaults.Set only fails on malformed tags.
	if err := defaults.Set(&p); err != nil {
		panic(err)
	}
	return p
}

// Validate checks every field against its constraints.
func (p *Preferences) Validate() error {
	if err := validator.New().Struct(p); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid preferences"), ErrInvalid)
	}
	return nil
}

// EffectiveStreamingQuality returns the quality actually used for streaming.
// Signed-out listeners always stream at low quality.
func (p *Preferences) EffectiveStreamingQuality(signedIn bool) string {
	if !signedIn {
		return QualityLow
	}
	return p.Playback.StreamingQuality
}

// EffectiveDownloadQuality returns the quality actually used for downloads.
func (p *Preferences) EffectiveDownloadQuality(signedIn bool) string {
	if !signedIn {
		return QualityLow
	}
	return p.Playback.DownloadQuality
}

func (p *Preferences) clone() Preferences {
	c := *p
	c.Equalizer.Bands = append([]int(nil), p.Equalizer.Bands...)
	return c
}
