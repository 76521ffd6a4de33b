// Package playback provides the playback queue and transport state machine.
package playback

import (
	"time"

	"github.com/osa030/vibeflow/internal/domain/track"
)

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No current track (queue empty or cleared)
	StatePlaying              // Current track is playing
	StatePaused               // Current track is selected but not playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	Queue           []track.Track
	CurrentIndex    int          // -1 when there is no current track
	Current         *track.Track // nil when there is no current track
	State           State
	ProgressPercent float64
	Duration        time.Duration
	Volume          int
	Muted           bool
	Shuffle         bool
	Repeat          bool
}

// IsPlaying reports whether the current track is playing.
func (s Snapshot) IsPlaying() bool {
	return s.State == StatePlaying
}

// Position returns the playback position derived from progress and duration.
func (s Snapshot) Position() time.Duration {
	return time.Duration(float64(s.Duration) * s.ProgressPercent / 100)
}
