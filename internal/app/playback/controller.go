package playback

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/domain/user"
)

// Errors
var (
	ErrInvalidIndex   = errors.New("queue index out of range")
	ErrNoTrack        = errors.New("no current track")
	ErrQueueEmpty     = errors.New("queue is empty")
	ErrSeekOutOfRange = errors.New("seek position out of range")
	ErrDuplicateTrack = errors.New("track already in queue")
	ErrAuthRequired   = errors.New("sign in required")
	ErrStaleEvent     = errors.New("audio event refers to a track that is no longer current")
)

// AuthProvider exposes the signed-in user, nil when signed out.
type AuthProvider interface {
	CurrentUser() *user.User
}

// FavoritesStore persists liked tracks and followed artists per user.
type FavoritesStore interface {
	LoadFavorites(ctx context.Context, userID string) (liked, followed []string, err error)
	SaveLiked(ctx context.Context, userID string, trackIDs []string) error
	SaveFollowed(ctx context.Context, userID string, artistIDs []string) error
}

// PreferencesStore persists the volume preferences.
type PreferencesStore interface {
	SaveVolume(ctx context.Context, volume int, muted bool) error
}

// Collaborators are the external ports the controller talks to.
// Any of them may be nil.
type Collaborators struct {
	Auth        AuthProvider
	Favorites   FavoritesStore
	Preferences PreferencesStore
}

// Config holds controller configuration.
type Config struct {
	RestartThresholdPercent float64       // previous() restarts the track above this progress
	ErrorAdvanceDelay       time.Duration // Delay before skipping a track the backend failed to play
	EventBuffer             int           // Event channel capacity
	ShuffleSeed             int64         // 0 seeds from the clock
	Volume                  int           // Initial volume (0-100)
	Muted                   bool          // Initial mute flag
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		RestartThresholdPercent: 10,
		ErrorAdvanceDelay:       2 * time.Second,
		EventBuffer:             64,
		Volume:                  80,
	}
}

// Controller owns the queue and the transport state.
// It is safe for concurrent use.
type Controller struct {
	mu sync.RWMutex

	// Queue management
	queue        []track.Track
	currentIndex int // -1 when there is no current track

	// Transport
	state    State
	progress float64 // percent of duration, 0-100
	duration time.Duration
	volume   int
	muted    bool

	// Modes
	shuffle  bool
	repeat   bool
	original []track.Track // Pre-shuffle order, kept only while shuffle is on

	// Favorites of the signed-in user
	favoritesOwner string
	liked          []string
	followed       []string

	collab Collaborators
	config Config
	rng    *rand.Rand

	// Pending advance after a backend error
	errorTimer *time.Timer

	// Events
	eventCh chan Event

	// Context
	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewController creates a controller with the given initial queue.
// The first track becomes current and paused. Duplicate ids are dropped.
func NewController(config Config, initial []track.Track, collab Collaborators) *Controller {
	if config.EventBuffer <= 0 {
		config.EventBuffer = DefaultConfig().EventBuffer
	}
	if config.RestartThresholdPercent <= 0 {
		config.RestartThresholdPercent = DefaultConfig().RestartThresholdPercent
	}
	if config.ErrorAdvanceDelay <= 0 {
		config.ErrorAdvanceDelay = DefaultConfig().ErrorAdvanceDelay
	}
	seed := config.ShuffleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		queue:        make([]track.Track, 0, len(initial)),
		currentIndex: -1,
		state:        StateIdle,
		volume:       clampVolume(config.Volume),
		muted:        config.Muted,
		collab:       collab,
		config:       config,
		rng:          rand.New(rand.NewSource(seed)),
		eventCh:      make(chan Event, config.EventBuffer),
		ctx:          ctx,
		cancel:       cancel,
	}

	for _, t := range initial {
		if c.indexOfLocked(t.ID) >= 0 {
			zlog.Warn().Msgf("playback: dropping duplicate track from initial queue: id=%s", t.ID)
			continue
		}
		c.queue = append(c.queue, t)
	}
	if len(c.queue) > 0 {
		c.currentIndex = 0
		c.state = StatePaused
		c.duration = c.queue[0].Duration
	}

	return c
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// PlayAt makes the track at index current and starts playing it from the beginning.
func (c *Controller) PlayAt(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.queue) {
		return errors.Wrapf(ErrInvalidIndex, "play at %d (queue length %d)", index, len(c.queue))
	}
	c.playAtLocked(index)
	return nil
}

// TogglePlayPause flips between playing and paused.
func (c *Controller) TogglePlayPause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentIndex < 0 {
		return ErrNoTrack
	}
	if c.state == StatePlaying {
		c.state = StatePaused
	} else {
		c.state = StatePlaying
	}
	c.sendEventLocked(EventStateChanged, c.currentLocked(), "")
	return nil
}

// Pause pauses the current track. Pausing a paused track is a no-op.
func (c *Controller) Pause() error {
	return c.setPlaying(false)
}

// Resume plays the current track. Resuming a playing track is a no-op.
func (c *Controller) Resume() error {
	return c.setPlaying(true)
}

func (c *Controller) setPlaying(playing bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentIndex < 0 {
		return ErrNoTrack
	}
	want := StatePaused
	if playing {
		want = StatePlaying
	}
	if c.state == want {
		return nil
	}
	c.state = want
	c.sendEventLocked(EventStateChanged, c.currentLocked(), "")
	return nil
}

// Next advances to the following track. At the end of the queue it wraps
// around when repeat is on and stops on the last track otherwise.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.nextLocked()
}

func (c *Controller) nextLocked() error {
	if len(c.queue) == 0 {
		return ErrQueueEmpty
	}

	if c.currentIndex < len(c.queue)-1 {
		c.playAtLocked(c.currentIndex + 1)
		return nil
	}
	if c.repeat {
		c.playAtLocked(0)
		return nil
	}

	c.stopErrorTimerLocked()
	c.state = StatePaused
	c.progress = 0
	zlog.Debug().Msgf("playback: reached end of queue: index=%d", c.currentIndex)
	c.sendEventLocked(EventQueueEnded, c.currentLocked(), "")
	return nil
}

// Previous restarts the current track once it has progressed past the
// restart threshold, otherwise moves to the preceding track.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.queue) == 0 {
		return ErrQueueEmpty
	}

	switch {
	case c.currentIndex < 0:
		c.playAtLocked(0)
	case c.progress > c.config.RestartThresholdPercent:
		c.restartLocked()
	case c.currentIndex > 0:
		c.playAtLocked(c.currentIndex - 1)
	case c.repeat:
		c.playAtLocked(len(c.queue) - 1)
	}
	return nil
}

// SeekTo moves the playback position. Positions outside [0, duration] are rejected.
func (c *Controller) SeekTo(position time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentIndex < 0 {
		return ErrNoTrack
	}
	if position < 0 || c.duration <= 0 || position > c.duration {
		return errors.Wrapf(ErrSeekOutOfRange, "seek to %v (duration %v)", position, c.duration)
	}

	c.progress = float64(position) / float64(c.duration) * 100
	e := c.newEventLocked(EventSeeked, c.currentLocked(), "")
	e.Position = position
	c.emitLocked(e)
	return nil
}

// SetVolume sets the volume, clamped to 0-100, and persists it.
func (c *Controller) SetVolume(percent int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.volume = clampVolume(percent)
	return c.volumeChangedLocked()
}

// ToggleMute flips the mute flag and persists it.
func (c *Controller) ToggleMute() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.muted = !c.muted
	return c.volumeChangedLocked()
}

func (c *Controller) volumeChangedLocked() error {
	c.sendEventLocked(EventVolumeChanged, nil, "")
	if c.collab.Preferences == nil {
		return nil
	}
	if err := c.collab.Preferences.SaveVolume(c.ctx, c.volume, c.muted); err != nil {
		return errors.Wrap(err, "failed to persist volume")
	}
	return nil
}

// ToggleRepeat flips the repeat flag.
func (c *Controller) ToggleRepeat() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.repeat = !c.repeat
	c.sendEventLocked(EventModeChanged, nil, "")
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// GetCurrentTrack returns the current track.
func (c *Controller) GetCurrentTrack() (*track.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t := c.currentLocked()
	return t, t != nil
}

// GetQueuedTracks returns a copy of the queue.
func (c *Controller) GetQueuedTracks() []track.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]track.Track, len(c.queue))
	copy(result, c.queue)
	return result
}

// IsInQueue checks if a track is in the queue.
func (c *Controller) IsInQueue(trackID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexOfLocked(trackID) >= 0
}

// Close stops pending timers and closes the event channel.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.stopErrorTimerLocked()
	c.cancel()
	close(c.eventCh)
}

// playAtLocked switches to index and starts playing from the beginning.
// Must be called with lock held and a valid index.
func (c *Controller) playAtLocked(index int) {
	c.stopErrorTimerLocked()
	c.currentIndex = index
	c.state = StatePlaying
	c.progress = 0
	c.duration = c.queue[index].Duration

	zlog.Debug().Msgf("playback: playing index=%d track=%s duration=%v",
		index, c.queue[index].ID, c.duration)
	c.sendEventLocked(EventTrackChanged, c.currentLocked(), "")
}

// restartLocked rewinds the current track.
// restartLocked rewinds the current track. A restart counts as a fresh
// attempt, so a pending error advance is cancelled.
func (c *Controller) restartLocked() {
	c.stopErrorTimerLocked()
	c.progress = 0
	c.sendEventLocked(EventTrackRestarted, c.currentLocked(), "")
}

func (c *Controller) currentLocked() *track.Track {
	if c.currentIndex < 0 || c.currentIndex >= len(c.queue) {
		return nil
	}
	t := c.queue[c.currentIndex]
	return &t
}

func (c *Controller) indexOfLocked(trackID string) int {
	for i, t := range c.queue {
		if t.ID == trackID {
			return i
		}
	}
	return -1
}

func (c *Controller) snapshotLocked() Snapshot {
	q := make([]track.Track, len(c.queue))
	copy(q, c.queue)
	return Snapshot{
		Queue:           q,
		CurrentIndex:    c.currentIndex,
		Current:         c.currentLocked(),
		State:           c.state,
		ProgressPercent: c.progress,
		Duration:        c.duration,
		Volume:          c.volume,
		Muted:           c.muted,
		Shuffle:         c.shuffle,
		Repeat:          c.repeat,
	}
}

func (c *Controller) newEventLocked(t EventType, tr *track.Track, msg string) Event {
	return Event{
		Type:     t,
		Track:    tr,
		Message:  msg,
		Snapshot: c.snapshotLocked(),
	}
}

func (c *Controller) sendEventLocked(t EventType, tr *track.Track, msg string) {
	c.emitLocked(c.newEventLocked(t, tr, msg))
}

// emitLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) emitLocked(e Event) {
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	case <-c.ctx.Done():
	default:
		zlog.Warn().Msgf("playback: event channel full, dropping %s", e.Type)
	}
}

func (c *Controller) stopErrorTimerLocked() {
	if c.errorTimer != nil {
		c.errorTimer.Stop()
		c.errorTimer = nil
	}
}

func clampVolume(v int) int {
	return min(max(v, 0), 100)
}
