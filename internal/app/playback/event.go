package playback

import (
	"time"

	"github.com/osa030/vibeflow/internal/domain/track"
)

// EventType represents a playback event type.
type EventType int

const (
	EventTrackChanged     EventType = iota // A different track became current; the audio backend loads it
	EventStateChanged                      // Play/pause flipped
	EventTrackRestarted                    // Current track rewound to the start
	EventSeeked                            // Position moved by a seek
	EventQueueChanged                      // Queue contents or order changed
	EventQueueEnded                        // Reached the end of the queue without repeat
	EventQueueCleared                      // Queue emptied, playback stopped
	EventVolumeChanged                     // Volume or mute changed
	EventModeChanged                       // Shuffle or repeat toggled
	EventFavoritesChanged                  // Liked tracks or followed artists changed
	EventAuthRequired                      // A like/follow was attempted while signed out
	EventPlaybackError                     // The audio backend failed to play the current track
	EventNotice                            // Informational message for the user
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackChanged:
		return "track_changed"
	case EventStateChanged:
		return "state_changed"
	case EventTrackRestarted:
		return "track_restarted"
	case EventSeeked:
		return "seeked"
	case EventQueueChanged:
		return "queue_changed"
	case EventQueueEnded:
		return "queue_ended"
	case EventQueueCleared:
		return "queue_cleared"
	case EventVolumeChanged:
		return "volume_changed"
	case EventModeChanged:
		return "mode_changed"
	case EventFavoritesChanged:
		return "favorites_changed"
	case EventAuthRequired:
		return "auth_required"
	case EventPlaybackError:
		return "playback_error"
	case EventNotice:
		return "notice"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	Track    *track.Track  // Subject track (nil for some events)
	Message  string        // Human readable detail for notices and errors
	Position time.Duration // Seek target for EventSeeked
	Snapshot Snapshot      // State right after the change
}
