package playback

import (
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// The audio backend reports back through the On* methods below. Every
// report names the track it refers to; reports about a track that is no
// longer current return ErrStaleEvent and change nothing.

// OnTimeUpdate records the playback position reported by the backend.
func (c *Controller) OnTimeUpdate(trackID string, position time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkCurrentLocked(trackID); err != nil {
		return err
	}
	if c.duration <= 0 {
		return nil
	}
	c.progress = min(max(float64(position)/float64(c.duration)*100, 0), 100)
	return nil
}

// OnMetadataLoaded replaces the declared duration with the one the backend measured.
func (c *Controller) OnMetadataLoaded(trackID string, duration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkCurrentLocked(trackID); err != nil {
		return err
	}
	if duration <= 0 {
		return nil
	}
	if c.duration != duration {
		zlog.Debug().Msgf("playback: duration corrected: track=%s declared=%v actual=%v", trackID, c.duration, duration)
	}
	c.duration = duration
	return nil
}

// OnEnded handles the natural end of the current track: restart it when
// repeat is on, otherwise advance like Next.
func (c *Controller) OnEnded(trackID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkCurrentLocked(trackID); err != nil {
		return err
	}
	zlog.Debug().Msgf("playback: track ended: track=%s repeat=%v", trackID, c.repeat)

	if c.repeat {
		c.restartLocked()
		return nil
	}
	return c.nextLocked()
}

// OnError handles a load or playback failure. It reports the failure and
// advances to the next track after the configured delay, provided the
// failed track is still current by then.
func (c *Controller) OnError(trackID string, cause string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkCurrentLocked(trackID); err != nil {
		return err
	}

	zlog.Warn().Msgf("playback: backend failed to play track=%s: %s", trackID, cause)
	c.sendEventLocked(EventPlaybackError, c.currentLocked(), cause)

	c.stopErrorTimerLocked()
	var timer *time.Timer
	timer = time.AfterFunc(c.config.ErrorAdvanceDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed || c.errorTimer != timer {
			return
		}
		c.errorTimer = nil
		if current := c.currentLocked(); current == nil || current.ID != trackID {
			return
		}
		if err := c.nextLocked(); err != nil {
			zlog.Warn().Err(err).Msg("playback: failed to advance after backend error")
		}
	})
	c.errorTimer = timer
	return nil
}

func (c *Controller) checkCurrentLocked(trackID string) error {
	current := c.currentLocked()
	if current == nil || current.ID != trackID {
		return errors.Wrapf(ErrStaleEvent, "track %s", trackID)
	}
	return nil
}
