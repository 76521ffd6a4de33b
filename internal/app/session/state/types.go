// Package state provides session state management.
package state

// Phase represents the session lifecycle phase.
type Phase int

const (
	PhaseStarting   Phase = iota // Restoring sign-in, preferences and the queue
	PhaseActive                  // Accepting commands
	PhaseStopping                // Shutdown requested
	PhaseTerminated              // Session has ended
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseActive:
		return "active"
	case PhaseStopping:
		return "stopping"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ImportStatus represents the progress of a Spotify playlist import.
type ImportStatus int

const (
	ImportNone    ImportStatus = iota // No import configured or requested
	ImportRunning                     // Fetching tracks
	ImportDone                        // Tracks added to the queue
	ImportFailed                      // Fetch failed
)

// String returns the string representation of the import status.
func (s ImportStatus) String() string {
	switch s {
	case ImportNone:
		return "none"
	case ImportRunning:
		return "running"
	case ImportDone:
		return "done"
	case ImportFailed:
		return "failed"
	default:
		return "unknown"
	}
}
