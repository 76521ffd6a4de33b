package session

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/app/filter"
	"github.com/osa030/vibeflow/internal/domain/track"
)

// startAutoplay fills the queue in the background once it has run out.
// At most one fill runs at a time.
func (m *Manager) startAutoplay() {
	if m.autoplay == nil || !m.prefs.Get().Playback.Autoplay {
		return
	}
	if !m.autoplaying.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer m.autoplaying.Store(false)

		added, err := m.Autoplay(m.ctx)
		if err != nil {
			zlog.Warn().Msgf("session: autoplay failed: %v", err)
			return
		}
		if added == 0 {
			zlog.Info().Msg("session: autoplay found nothing new to play")
			return
		}
		if err := m.player.Next(); err != nil {
			zlog.Error().Msgf("session: autoplay could not continue playback: %v", err)
		}
	}()
}

// Autoplay appends recommended tracks to the queue and returns how many
// were added. Recommendations pass the same admission filters as imports.
func (m *Manager) Autoplay(ctx context.Context) (int, error) {
	if m.autoplay == nil {
		return 0, nil
	}

	queue := m.player.GetQueuedTracks()
	exclude := make(map[string]bool, len(queue))
	for _, t := range queue {
		exclude[t.ID] = true
	}

	candidates, err := m.autoplay.GetCandidates(ctx, m.config.Autoplay.CandidateCount, seedTracks(queue, m.config.Autoplay.SeedTrackCount), exclude)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, c := range candidates {
		if err := m.admit(ctx, c.Track, filter.SourceImport); err != nil {
			continue
		}
		m.remember(c.Track)
		if err := m.player.AddToQueue(c.Track); err != nil {
			continue
		}
		zlog.Info().Msgf("autoplay: queued track=%s title=%q source=%s", c.Track.ID, c.Track.Title, c.DisplayName)
		added++
	}
	return added, nil
}

// seedTracks returns the last n queued tracks, most recent first.
func seedTracks(queue []track.Track, n int) []track.Track {
	seeds := make([]track.Track, 0, n)
	for i := len(queue) - 1; i >= 0 && len(seeds) < n; i-- {
		seeds = append(seeds, queue[i])
	}
	return seeds
}
