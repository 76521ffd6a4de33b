// Package session provides the session manager that wires the player together.
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/app/auth"
	"github.com/osa030/vibeflow/internal/app/autoplay"
	"github.com/osa030/vibeflow/internal/app/filter"
	"github.com/osa030/vibeflow/internal/app/library"
	"github.com/osa030/vibeflow/internal/app/notification"
	"github.com/osa030/vibeflow/internal/app/playback"
	"github.com/osa030/vibeflow/internal/app/preferences"
	"github.com/osa030/vibeflow/internal/app/session/state"
	"github.com/osa030/vibeflow/internal/app/stats"
	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/domain/user"
	"github.com/osa030/vibeflow/internal/infra/catalog"
	"github.com/osa030/vibeflow/internal/infra/config"
	"github.com/osa030/vibeflow/internal/infra/store"
)

var (
	ErrSessionNotActive = errors.New("session is not active")
	ErrTrackNotFound    = errors.New("track not found")
	ErrSpotifyDisabled  = errors.New("spotify is not configured")
)

// RejectedError is returned when an admission filter refuses a track.
type RejectedError struct {
	Code   string
	Filter string
}

func (e *RejectedError) Error() string {
	return "track rejected by " + e.Filter + ": " + e.Code
}

// TrackSource looks up tracks outside the local catalog.
type TrackSource interface {
	GetTrack(ctx context.Context, trackID string) (*track.Track, error)
	GetPlaylistTracks(ctx context.Context, playlistURL string) ([]track.Track, error)
	Search(ctx context.Context, query string, limit int) ([]track.Track, error)
}

// Options are the inputs that do not come from the config file.
type Options struct {
	Queue   []track.Track         // Starting queue
	Spotify TrackSource           // Nil disables Spotify lookups
	LastFm  autoplay.LastFmClient // Replaces the client built from config
}

// Manager manages the player session.
type Manager struct {
	mu sync.RWMutex

	// Configuration
	config *config.Config

	// Components
	stateMgr     *state.Manager
	auth         *auth.Provider
	prefs        *preferences.Manager
	favorites    *library.Favorites
	library      *library.Library
	stats        *stats.Recorder
	player       *playback.Controller
	filterChain  *filter.Chain
	notification *notification.Manager
	spotify      TrackSource
	autoplay     *autoplay.Chain // Nil when disabled

	autoplaying atomic.Bool

	// Every track the session has seen, by id
	known catalog.Index

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewManager creates a session manager. Sign-in and preferences are
// restored from the store before the controller is built.
func NewManager(ctx context.Context, cfg *config.Config, st store.Store, opts Options) (*Manager, error) {
	authProvider := auth.NewProvider(st, auth.Config{
		DemoEmail:         cfg.Auth.DemoEmail,
		DemoPassword:      cfg.Auth.DemoPassword,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
	})
	if err := authProvider.Restore(ctx); err != nil {
		zlog.Warn().Msgf("session: failed to restore sign-in: %v", err)
	}

	prefs := preferences.NewManager(st)
	if err := prefs.Load(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to load preferences")
	}
	current := prefs.Get()

	favorites := library.NewFavorites(st)
	player := playback.NewController(playback.Config{
		RestartThresholdPercent: cfg.Playback.RestartThresholdPercent,
		ErrorAdvanceDelay:       cfg.Playback.ErrorAdvanceDelay(),
		EventBuffer:             cfg.Playback.EventBuffer,
		ShuffleSeed:             cfg.Playback.ShuffleSeed,
		Volume:                  current.Volume,
		Muted:                   current.Muted,
	}, opts.Queue, playback.Collaborators{
		Auth:        authProvider,
		Favorites:   favorites,
		Preferences: prefs,
	})

	loopCtx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config:       cfg,
		stateMgr:     state.New(uuid.New().String()),
		auth:         authProvider,
		prefs:        prefs,
		favorites:    favorites,
		library:      library.NewLibrary(st, authProvider),
		stats:        stats.NewRecorder(st, authProvider, cfg.Stats.HistoryLimit),
		player:       player,
		filterChain:  filter.NewChain(),
		notification: notification.NewManager(),
		spotify:      opts.Spotify,
		known:        catalog.NewIndex(opts.Queue),
		ctx:          loopCtx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	if err := m.setupFilters(); err != nil {
		cancel()
		player.Close()
		return nil, err
	}

	if !cfg.Autoplay.Disabled {
		deps := autoplay.Dependencies{
			Known:  m.KnownTracks,
			LastFm: opts.LastFm,
			Seed:   cfg.Playback.ShuffleSeed,
		}
		if opts.Spotify != nil {
			deps.Searcher = opts.Spotify
		}
		chain, err := autoplay.NewChainFromConfig(cfg, deps)
		if err != nil {
			cancel()
			player.Close()
			return nil, errors.Wrap(err, "failed to set up autoplay")
		}
		m.autoplay = chain
	}

	if authProvider.IsAuthenticated() {
		if err := player.ReloadFavorites(ctx); err != nil {
			zlog.Warn().Msgf("session: failed to load favorites: %v", err)
		}
	}
	authProvider.OnChange(m.onAuthChanged)

	return m, nil
}

// setupFilters initializes the filter chain.
func (m *Manager) setupFilters() error {
	cfg := m.config

	// MarketFilter
	m.filterChain.Add(filter.NewMarketFilter(cfg.Spotify.Market))

	// DuplicateTrackFilter
	if cfg.IsFilterEnabled("duplicate_track_filter") {
		m.filterChain.Add(filter.NewDuplicateTrackFilter(m.player))
	}

	// Filters without dependencies
	for name, factory := range filter.GetRegistered() {
		if !cfg.IsFilterEnabled(name) {
			continue
		}
		f := factory()
		if err := f.ValidateConfig(cfg.GetFilterSettings(name)); err != nil {
			return errors.Wrapf(err, "filter %s", name)
		}
		m.filterChain.Add(f)
	}

	return nil
}

// Start activates the session and starts the event loop. A configured
// Spotify playlist is imported in the background.
func (m *Manager) Start(ctx context.Context) error {
	if m.stateMgr.GetPhase() != state.PhaseStarting {
		return errors.New("session already started")
	}
	m.stateMgr.SetPhase(state.PhaseActive)
	zlog.Info().Msgf("phase changed: phase=ACTIVE session_id=%s queue=%d", m.stateMgr.GetSessionID(), len(m.player.GetQueuedTracks()))

	go m.eventLoop()

	if url := m.config.Catalog.SpotifyPlaylist; url != "" {
		if m.spotify == nil {
			zlog.Warn().Msgf("session: spotify playlist %s configured without credentials, skipping import", url)
		} else {
			go func() {
				if _, err := m.ImportSpotifyPlaylist(m.ctx, url); err != nil {
					zlog.Error().Msgf("session: playlist import failed: %v", err)
				}
			}()
		}
	}

	return nil
}

// Done returns a channel closed when the session has terminated.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close stops the event loop and releases the controller and subscribers.
func (m *Manager) Close() {
	m.once.Do(func() {
		m.stateMgr.SetPhase(state.PhaseStopping)
		m.cancel()
		m.player.Close()
		m.notification.Close()
		m.stateMgr.SetPhase(state.PhaseTerminated)
		close(m.done)
		zlog.Info().Msgf("phase changed: phase=TERMINATED session_id=%s", m.stateMgr.GetSessionID())
	})
}

// Info returns the session state.
func (m *Manager) Info() state.Info {
	return m.stateMgr.Info()
}

// Player returns the playback controller.
func (m *Manager) Player() *playback.Controller {
	return m.player
}

// Auth returns the auth provider.
func (m *Manager) Auth() *auth.Provider {
	return m.auth
}

// Library returns the playlist library.
func (m *Manager) Library() *library.Library {
	return m.library
}

// Stats returns the listening stats recorder.
func (m *Manager) Stats() *stats.Recorder {
	return m.stats
}

// Preferences returns the preferences manager.
func (m *Manager) Preferences() *preferences.Manager {
	return m.prefs
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// SpotifyEnabled reports whether Spotify lookups are available.
func (m *Manager) SpotifyEnabled() bool {
	return m.spotify != nil
}

// StreamingQuality returns the streaming quality in effect for the current sign-in state.
func (m *Manager) StreamingQuality() string {
	p := m.prefs.Get()
	return p.EffectiveStreamingQuality(m.auth.IsAuthenticated())
}

// onAuthChanged reloads the favorites of the new user.
func (m *Manager) onAuthChanged(u *user.User) {
	if u == nil {
		zlog.Info().Msg("session: signed out")
	} else {
		zlog.Info().Msgf("session: signed in user=%s", u.ID)
	}
	if err := m.player.ReloadFavorites(m.ctx); err != nil {
		zlog.Error().Msgf("session: failed to reload favorites: %v", err)
	}
}

// eventLoop handles playback events.
func (m *Manager) eventLoop() {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("event loop panicked: %v", r)
			zlog.Info().Msg("restarting event loop")
			go m.eventLoop()
		}
	}()

	events := m.player.Events()
	for {
		select {
		case <-m.ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handlePlaybackEvent(ev)
		}
	}
}

// handlePlaybackEvent records plays and forwards the event to subscribers.
func (m *Manager) handlePlaybackEvent(ev playback.Event) {
	zlog.Debug().Msgf("playback event: type=%s", ev.Type)

	switch ev.Type {
	case playback.EventTrackChanged:
		if ev.Track != nil {
			m.onTrackChanged(*ev.Track)
		}
	case playback.EventQueueEnded:
		m.startAutoplay()
	}

	m.notification.Broadcast(notification.FromEvent(ev))
}

func (m *Manager) onTrackChanged(t track.Track) {
	if !m.auth.IsAuthenticated() {
		return
	}
	if err := m.stats.RecordPlay(m.ctx, t); err != nil {
		zlog.Error().Msgf("session: failed to record play: %v", err)
	}
	if err := m.library.RecordRecentlyPlayed(m.ctx, t); err != nil {
		zlog.Error().Msgf("session: failed to update recently played: %v", err)
	}
}
