package playback

import (
	"slices"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/domain/track"
)

// ToggleShuffle turns shuffle on or off without interrupting the current track.
//
// Enabling saves the queue order, moves the current track to the front and
// shuffles the rest. Disabling restores the saved order and points the
// current index at the same track again.
func (c *Controller) ToggleShuffle() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shuffle {
		c.unshuffleLocked()
	} else {
		c.shuffleLocked()
	}
	c.sendEventLocked(EventModeChanged, nil, "")
	return nil
}

func (c *Controller) shuffleLocked() {
	c.original = slices.Clone(c.queue)
	c.shuffle = true

	current := c.currentLocked()
	rest := make([]track.Track, 0, len(c.queue))
	for i, t := range c.queue {
		if i != c.currentIndex {
			rest = append(rest, t)
		}
	}

	// Fisher-Yates
	for i := len(rest) - 1; i > 0; i-- {
		j := c.rng.Intn(i + 1)
		rest[i], rest[j] = rest[j], rest[i]
	}

	if current == nil {
		c.queue = rest
		return
	}
	c.queue = append([]track.Track{*current}, rest...)
	c.currentIndex = 0
}

func (c *Controller) unshuffleLocked() {
	current := c.currentLocked()
	c.queue = c.original
	if c.queue == nil {
		c.queue = make([]track.Track, 0)
	}
	c.original = nil
	c.shuffle = false

	if current == nil {
		return
	}
	if idx := c.indexOfLocked(current.ID); idx >= 0 {
		c.currentIndex = idx
		return
	}

	// The saved order lost the playing track; fall back to the first entry.
	zlog.Warn().Msgf("playback: current track missing after unshuffle: track=%s", current.ID)
	if len(c.queue) == 0 {
		c.resetLocked()
		c.sendEventLocked(EventQueueCleared, nil, "")
		return
	}
	c.currentIndex = 0
	c.progress = 0
	c.duration = c.queue[0].Duration
	c.sendEventLocked(EventNotice, c.currentLocked(), "the playing track is no longer in the queue; jumped to the first track")
	c.sendEventLocked(EventTrackChanged, c.currentLocked(), "")
}
