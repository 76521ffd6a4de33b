// Package stats records listening history and derives per-user statistics.
package stats

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/domain/user"
	"github.com/osa030/vibeflow/internal/infra/store"
)

const (
	historyKey = "history"
	totalsKey  = "stats"

	// DefaultHistoryLimit is the number of plays kept per user.
	DefaultHistoryLimit = 1000

	topArtistsLimit     = 5
	topGenresLimit      = 5
	mostPlayedLimit     = 10
	recentlyPlayedLimit = 20

	unknownGenre = "Unknown"
)

// ErrAuthRequired is returned when no user is signed in.
var ErrAuthRequired = errors.New("sign in required")

// AuthProvider exposes the signed-in user, nil when signed out.
type AuthProvider interface {
	CurrentUser() *user.User
}

// HistoryItem is one recorded play.
type HistoryItem struct {
	TrackID     string    `json:"track_id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Genre       string    `json:"genre,omitempty"`
	CoverArtURL string    `json:"cover_art_url,omitempty"`
	PlayedAt    time.Time `json:"played_at"`
}

// Count is a name with the number of plays it collected.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TrackCount is a track with the number of times it was played.
type TrackCount struct {
	TrackID     string `json:"track_id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	CoverArtURL string `json:"cover_art_url,omitempty"`
	PlayCount   int    `json:"play_count"`
}

// Totals are the running counters kept next to the history.
type Totals struct {
	TotalListeningTime time.Duration `json:"total_listening_time"`
	SongsPlayed        int           `json:"songs_played"`
}

// Stats is the aggregated view of a user's listening.
type Stats struct {
	Totals
	TopArtists     []Count       `json:"top_artists"`
	TopGenres      []Count       `json:"top_genres"`
	MostPlayed     []TrackCount  `json:"most_played"`
	RecentlyPlayed []HistoryItem `json:"recently_played"`
}

// Recorder records plays of the signed-in user.
type Recorder struct {
	mu           sync.Mutex
	store        store.Store
	auth         AuthProvider
	historyLimit int
	now          func() time.Time
}

// NewRecorder creates a recorder. A non-positive historyLimit uses DefaultHistoryLimit.
func NewRecorder(st store.Store, auth AuthProvider, historyLimit int) *Recorder {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Recorder{
		store:        st,
		auth:         auth,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// RecordPlay appends a play to the history and updates the totals.
func (r *Recorder) RecordPlay(ctx context.Context, t track.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.currentUser()
	if u == nil {
		return ErrAuthRequired
	}

	history, err := r.loadHistoryLocked(ctx, u.ID)
	if err != nil {
		return err
	}
	history = append(history, HistoryItem{
		TrackID:     t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		Genre:       t.Genre,
		CoverArtURL: t.CoverArtURL,
		PlayedAt:    r.now(),
	})
	if over := len(history) - r.historyLimit; over > 0 {
		history = history[over:]
	}

	totals, err := r.loadTotalsLocked(ctx, u.ID)
	if err != nil {
		return err
	}
	totals.TotalListeningTime += t.Duration
	totals.SongsPlayed++

	if err := store.SetJSON(ctx, r.store, store.UserKey(u.ID, historyKey), history); err != nil {
		return errors.Wrap(err, "failed to save history")
	}
	if err := store.SetJSON(ctx, r.store, store.UserKey(u.ID, totalsKey), totals); err != nil {
		return errors.Wrap(err, "failed to save stats")
	}

	zlog.Debug().Msgf("stats: recorded play user=%s track=%s", u.ID, t.ID)
	return nil
}

// Stats returns the aggregated statistics of the signed-in user.
func (r *Recorder) Stats(ctx context.Context) (*Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.currentUser()
	if u == nil {
		return nil, ErrAuthRequired
	}

	history, err := r.loadHistoryLocked(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	totals, err := r.loadTotalsLocked(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Totals:         totals,
		TopArtists:     topArtists(history),
		TopGenres:      topGenres(history),
		MostPlayed:     mostPlayed(history),
		RecentlyPlayed: recentlyPlayed(history),
	}, nil
}

// History returns the recorded plays of the signed-in user, oldest first.
func (r *Recorder) History(ctx context.Context) ([]HistoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.currentUser()
	if u == nil {
		return nil, ErrAuthRequired
	}
	return r.loadHistoryLocked(ctx, u.ID)
}

func (r *Recorder) currentUser() *user.User {
	if r.auth == nil {
		return nil
	}
	return r.auth.CurrentUser()
}

func (r *Recorder) loadHistoryLocked(ctx context.Context, userID string) ([]HistoryItem, error) {
	history := []HistoryItem{}
	err := store.GetJSON(ctx, r.store, store.UserKey(userID, historyKey), &history)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, errors.Wrap(err, "failed to load history")
	}
	return history, nil
}

func (r *Recorder) loadTotalsLocked(ctx context.Context, userID string) (Totals, error) {
	var totals Totals
	err := store.GetJSON(ctx, r.store, store.UserKey(userID, totalsKey), &totals)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Totals{}, errors.Wrap(err, "failed to load stats")
	}
	return totals, nil
}

func topArtists(history []HistoryItem) []Count {
	return topCounts(history, topArtistsLimit, func(h HistoryItem) string { return h.Artist })
}

func topGenres(history []HistoryItem) []Count {
	return topCounts(history, topGenresLimit, func(h HistoryItem) string {
		if h.Genre == "" {
			return unknownGenre
		}
		return h.Genre
	})
}

// topCounts counts history items by key, highest first. Ties keep first-seen order.
func topCounts(history []HistoryItem, limit int, key func(HistoryItem) string) []Count {
	counts := []Count{}
	index := make(map[string]int)
	for _, h := range history {
		k := key(h)
		if i, ok := index[k]; ok {
			counts[i].Count++
			continue
		}
		index[k] = len(counts)
		counts = append(counts, Count{Name: k, Count: 1})
	}
	slices.SortStableFunc(counts, func(a, b Count) int { return cmp.Compare(b.Count, a.Count) })
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

func mostPlayed(history []HistoryItem) []TrackCount {
	counts := []TrackCount{}
	index := make(map[string]int)
	for _, h := range history {
		if i, ok := index[h.TrackID]; ok {
			counts[i].PlayCount++
			continue
		}
		index[h.TrackID] = len(counts)
		counts = append(counts, TrackCount{
			TrackID:     h.TrackID,
			Title:       h.Title,
			Artist:      h.Artist,
			CoverArtURL: h.CoverArtURL,
			PlayCount:   1,
		})
	}
	slices.SortStableFunc(counts, func(a, b TrackCount) int { return cmp.Compare(b.PlayCount, a.PlayCount) })
	if len(counts) > mostPlayedLimit {
		counts = counts[:mostPlayedLimit]
	}
	return counts
}

// recentlyPlayed returns the latest plays, newest first.
func recentlyPlayed(history []HistoryItem) []HistoryItem {
	n := min(len(history), recentlyPlayedLimit)
	recent := make([]HistoryItem, 0, n)
	for i := len(history) - 1; i >= len(history)-n; i-- {
		recent = append(recent, history[i])
	}
	return recent
}
