// Package filter provides the admission chain tracks pass before they enter the queue.
package filter

import (
	"context"

	"github.com/osa030/vibeflow/internal/domain/track"
)

// Source tells where an admission request came from.
type Source string

const (
	SourceUser   Source = "USER"   // Added by a listener through the player
	SourceImport Source = "IMPORT" // Imported from a Spotify playlist
)

// Request represents a track waiting for admission.
type Request struct {
	Track  track.Track
	Source Source
	UserID string // Empty when signed out
}

// Result represents the result of a filter check.
type Result struct {
	Accepted bool
	Code     string // e.g., "duplicate_track", "market_restriction"
	Filter   string // Name of the rejecting filter
}

// Accept returns an accepted result.
func Accept() Result {
	return Result{Accepted: true}
}

// Reject returns a rejected result with the given code.
func Reject(code string) Result {
	return Result{Accepted: false, Code: code}
}

// Filter is the interface for admission filters.
type Filter interface {
	// Name returns the filter name (used in config).
	Name() string
	// Description returns a human-readable description.
	Description() string
	// ReturnCodes returns the codes this filter can return.
	ReturnCodes() []string
	// ValidateConfig validates and applies the filter settings.
	ValidateConfig(settings map[string]any) error
	// AppliesTo returns true if this filter should run for the given source.
	AppliesTo(source Source) bool
	// Check performs the filter check.
	Check(ctx context.Context, req Request) Result
}

// registry holds filters that need no constructor arguments.
var registry = make(map[string]func() Filter)

// Register registers a filter factory.
func Register(name string, factory func() Filter) {
	registry[name] = factory
}

// GetRegistered returns all registered filter factories.
func GetRegistered() map[string]func() Filter {
	return registry
}
