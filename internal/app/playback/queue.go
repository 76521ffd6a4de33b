package playback

import (
	"slices"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/domain/track"
)

// AddToQueue appends a track. The current index and play state are left alone.
func (c *Controller) AddToQueue(t track.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOfLocked(t.ID) >= 0 {
		return errors.Wrapf(ErrDuplicateTrack, "track %s", t.ID)
	}

	c.queue = append(c.queue, t)
	if c.shuffle {
		c.original = append(c.original, t)
	}

	zlog.Debug().Msgf("playback: added to queue: track=%s size=%d", t.ID, len(c.queue))
	c.sendEventLocked(EventQueueChanged, &t, "")
	return nil
}

// RemoveFromQueue removes the entry at index.
// Removing the current track selects the track that slides into its slot
// (or the new last track) and keeps the play state.
func (c *Controller) RemoveFromQueue(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.queue) {
		return errors.Wrapf(ErrInvalidIndex, "remove %d (queue length %d)", index, len(c.queue))
	}

	removed := c.queue[index]
	c.queue = slices.Delete(c.queue, index, index+1)
	if c.shuffle {
		c.original = slices.DeleteFunc(c.original, func(t track.Track) bool { return t.ID == removed.ID })
	}

	switch {
	case index < c.currentIndex:
		c.currentIndex--
	case index == c.currentIndex:
		if len(c.queue) == 0 {
			c.resetLocked()
			c.sendEventLocked(EventQueueCleared, &removed, "")
			return nil
		}
		c.stopErrorTimerLocked()
		c.currentIndex = min(c.currentIndex, len(c.queue)-1)
		c.progress = 0
		c.duration = c.queue[c.currentIndex].Duration
		c.sendEventLocked(EventTrackChanged, c.currentLocked(), "")
	}

	c.sendEventLocked(EventQueueChanged, &removed, "")
	return nil
}

// MoveUp swaps the entry at index with the one before it.
func (c *Controller) MoveUp(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index <= 0 || index >= len(c.queue) {
		return errors.Wrapf(ErrInvalidIndex, "move up %d (queue length %d)", index, len(c.queue))
	}
	c.swapLocked(index-1, index)
	return nil
}

// MoveDown swaps the entry at index with the one after it.
func (c *Controller) MoveDown(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.queue)-1 {
		return errors.Wrapf(ErrInvalidIndex, "move down %d (queue length %d)", index, len(c.queue))
	}
	c.swapLocked(index, index+1)
	return nil
}

// swapLocked swaps two adjacent entries; the current index follows its track.
func (c *Controller) swapLocked(i, j int) {
	c.queue[i], c.queue[j] = c.queue[j], c.queue[i]
	switch c.currentIndex {
	case i:
		c.currentIndex = j
	case j:
		c.currentIndex = i
	}
	c.sendEventLocked(EventQueueChanged, nil, "")
}

// ClearQueue empties the queue and stops playback.
func (c *Controller) ClearQueue() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queue = make([]track.Track, 0)
	if c.shuffle {
		c.original = make([]track.Track, 0)
	}
	c.resetLocked()
	c.sendEventLocked(EventQueueCleared, nil, "")
}

// resetLocked drops the current track and stops playback.
func (c *Controller) resetLocked() {
	c.stopErrorTimerLocked()
	c.currentIndex = -1
	c.state = StateIdle
	c.progress = 0
	c.duration = 0
}
