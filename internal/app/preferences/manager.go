package preferences

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/infra/store"
)

const storeKey = "preferences"

// Errors
var (
	ErrUnknownPreset = errors.New("unknown equalizer preset")
	ErrInvalidBand   = errors.New("equalizer band out of range")
	ErrInvalid       = errors.New("invalid preferences")
)

// Manager owns the preference document and writes it through the store on change.
type Manager struct {
	mu    sync.RWMutex
	store store.Store
	prefs Preferences
}

// NewManager creates a manager holding the default preferences.
func NewManager(st store.Store) *Manager {
	return &Manager{
		store: st,
		prefs: Default(),
	}
}

// Load reads the stored preferences on top of the defaults.
// Fields missing from the stored document keep their default; a document
// that fails validation is discarded.
func (m *Manager) Load(ctx context.Context) error {
	p := Default()

	data, err := m.store.Get(ctx, storeKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
		zlog.Debug().Msg("preferences: nothing stored, using defaults")
	case err != nil:
		return errors.Wrap(err, "failed to read preferences")
	default:
		if err := json.Unmarshal(data, &p); err != nil {
			zlog.Warn().Err(err).Msg("preferences: stored document unreadable, using defaults")
			p = Default()
		} else if err := p.Validate(); err != nil {
			zlog.Warn().Err(err).Msg("preferences: stored document invalid, using defaults")
			p = Default()
		}
	}

	m.mu.Lock()
	m.prefs = p
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the current preferences.
func (m *Manager) Get() Preferences {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prefs.clone()
}

// Update applies fn to a copy of the preferences, validates and persists the result.
// Nothing is written when fn changes nothing.
func (m *Manager) Update(ctx context.Context, fn func(p *Preferences)) (Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.prefs.clone()
	fn(&next)
	next.Equalizer.Preset = MatchPreset(next.Equalizer.Bands)

	if err := next.Validate(); err != nil {
		return m.prefs.clone(), err
	}
	if reflect.DeepEqual(next, m.prefs) {
		return next, nil
	}
	if err := store.SetJSON(ctx, m.store, storeKey, next); err != nil {
		return m.prefs.clone(), errors.Wrap(err, "failed to save preferences")
	}

	m.prefs = next
	return next.clone(), nil
}

// Reset restores and persists the defaults.
func (m *Manager) Reset(ctx context.Context) error {
	_, err := m.Update(ctx, func(p *Preferences) {
		*p = Default()
	})
	return err
}

// SaveVolume persists the player volume and mute flag.
func (m *Manager) SaveVolume(ctx context.Context, volume int, muted bool) error {
	_, err := m.Update(ctx, func(p *Preferences) {
		p.Volume = volume
		p.Muted = muted
	})
	return err
}

// ApplyEqualizerPreset replaces all bands with a named preset.
func (m *Manager) ApplyEqualizerPreset(ctx context.Context, name string) (Preferences, error) {
	bands, ok := Preset(name)
	if !ok {
		return m.Get(), errors.Wrapf(ErrUnknownPreset, "%q", name)
	}
	return m.Update(ctx, func(p *Preferences) {
		p.Equalizer.Bands = bands
	})
}

// SetEqualizerBand sets one band, clamping the gain to the allowed range.
func (m *Manager) SetEqualizerBand(ctx context.Context, index, gain int) (Preferences, error) {
	if index < 0 || index >= len(BandFrequencies) {
		return m.Get(), errors.Wrapf(ErrInvalidBand, "band %d", index)
	}
	return m.Update(ctx, func(p *Preferences) {
		p.Equalizer.Bands[index] = min(max(gain, MinGain), MaxGain)
	})
}

// SetEqualizerEnabled turns the equalizer on or off.
func (m *Manager) SetEqualizerEnabled(ctx context.Context, enabled bool) (Preferences, error) {
	return m.Update(ctx, func(p *Preferences) {
		p.Equalizer.Enabled = enabled
	})
}
