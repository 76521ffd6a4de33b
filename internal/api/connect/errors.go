package connect

import (
	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/vibeflow/internal/app/auth"
	"github.com/osa030/vibeflow/internal/app/library"
	"github.com/osa030/vibeflow/internal/app/playback"
	"github.com/osa030/vibeflow/internal/app/preferences"
	"github.com/osa030/vibeflow/internal/app/session"
	"github.com/osa030/vibeflow/internal/app/stats"
)

// toConnectError maps application errors to connect codes.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}

	var rejected *session.RejectedError
	switch {
	case errors.As(err, &rejected):
		return connect.NewError(connect.CodeFailedPrecondition, err)

	case errors.Is(err, playback.ErrInvalidIndex),
		errors.Is(err, playback.ErrSeekOutOfRange),
		errors.Is(err, preferences.ErrUnknownPreset),
		errors.Is(err, preferences.ErrInvalidBand),
		errors.Is(err, preferences.ErrInvalid),
		errors.Is(err, library.ErrEmptyName),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword):
		return connect.NewError(connect.CodeInvalidArgument, err)

	case errors.Is(err, playback.ErrDuplicateTrack),
		errors.Is(err, library.ErrAlreadyInPlaylist),
		errors.Is(err, auth.ErrAccountExists):
		return connect.NewError(connect.CodeAlreadyExists, err)

	case errors.Is(err, playback.ErrAuthRequired),
		errors.Is(err, library.ErrAuthRequired),
		errors.Is(err, stats.ErrAuthRequired),
		errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)

	case errors.Is(err, session.ErrTrackNotFound),
		errors.Is(err, library.ErrPlaylistNotFound),
		errors.Is(err, library.ErrTrackNotFound):
		return connect.NewError(connect.CodeNotFound, err)

	case errors.Is(err, playback.ErrNoTrack),
		errors.Is(err, playback.ErrQueueEmpty),
		errors.Is(err, playback.ErrStaleEvent),
		errors.Is(err, library.ErrDefaultPlaylist),
		errors.Is(err, session.ErrSessionNotActive):
		return connect.NewError(connect.CodeFailedPrecondition, err)

	case errors.Is(err, session.ErrSpotifyDisabled):
		return connect.NewError(connect.CodeUnimplemented, err)
	}

	zlog.Error().Msgf("api: unexpected error: %v", err)
	return connect.NewError(connect.CodeInternal, err)
}
