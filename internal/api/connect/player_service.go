package connect

import (
	"context"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/vibeflow/internal/app/notification"
	"github.com/osa030/vibeflow/internal/app/playback"
	"github.com/osa030/vibeflow/internal/app/session"
	"github.com/osa030/vibeflow/internal/infra/config"
)

// PlayerService implements the vibeflow.v1.PlayerService RPC.
type PlayerService struct {
	session *session.Manager
	config  *config.Config
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(session *session.Manager, cfg *config.Config) *PlayerService {
	return &PlayerService{
		session: session,
		config:  cfg,
	}
}

func (s *PlayerService) player() *playback.Controller {
	return s.session.Player()
}

// state builds the wire state from the current snapshot.
func (s *PlayerService) state() *PlayerState {
	st := toPlayerState(s.player().Snapshot(), s.player().IsLiked)
	info := s.session.Info()
	st.SessionID = info.SessionID
	st.Phase = info.Phase.String()
	return st
}

// stateAfter returns the state when err is nil.
func (s *PlayerService) stateAfter(err error) (*PlayerState, error) {
	if err != nil {
		return nil, err
	}
	return s.state(), nil
}

func (s *PlayerService) GetState(ctx context.Context, req *Empty) (*PlayerState, error) {
	return s.state(), nil
}

func (s *PlayerService) PlayAt(ctx context.Context, req *IndexRequest) (*PlayerState, error) {
	return s.stateAfter(s.player().PlayAt(req.Index))
}

func (s *PlayerService) TogglePlayPause(ctx context.Context, req *Empty) (*PlayerState, error) {
	return s.stateAfter(s.player().TogglePlayPause())
}

func (s *PlayerService) Next(ctx context.Context, req *Empty) (*PlayerState, error) {
	return s.stateAfter(s.player().Next())
}

func (s *PlayerService) Previous(ctx context.Context, req *Empty) (*PlayerState, error) {
	return s.stateAfter(s.player().Previous())
}

func (s *PlayerService) SeekTo(ctx context.Context, req *SeekRequest) (*PlayerState, error) {
	return s.stateAfter(s.player().SeekTo(time.Duration(req.PositionMs) * time.Millisecond))
}

func (s *PlayerService) SetVolume(ctx context.Context, req *VolumeRequest) (*PlayerState, error) {
	return s.stateAfter(s.player().SetVolume(req.Volume))
}

func (s *PlayerService) ToggleMute(ctx context.Context, req *Empty) (*PlayerState, error) {
	return s.stateAfter(s.player().ToggleMute())
}

func (s *PlayerService) ToggleShuffle(ctx context.Context, req *Empty) (*PlayerState, error) {
	return s.stateAfter(s.player().ToggleShuffle())
}

func (s *PlayerService) ToggleRepeat(ctx context.Context, req *Empty) (*PlayerState, error) {
	s.player().ToggleRepeat()
	return s.state(), nil
}

// AddToQueue reports filter rejections in the response rather than as an error.
func (s *PlayerService) AddToQueue(ctx context.Context, req *TrackRequest) (*AddToQueueResponse, error) {
	t, err := s.session.AddToQueue(ctx, req.TrackID)
	var rejected *session.RejectedError
	switch {
	case errors.As(err, &rejected):
		return &AddToQueueResponse{Code: rejected.Code, Message: s.config.GetMessage(rejected.Code)}, nil
	case errors.Is(err, session.ErrTrackNotFound):
		return &AddToQueueResponse{Code: "track_not_found", Message: s.config.GetMessage("track_not_found")}, nil
	case errors.Is(err, playback.ErrDuplicateTrack):
		return &AddToQueueResponse{Code: "duplicate_track", Message: s.config.GetMessage("duplicate_track")}, nil
	case err != nil:
		return nil, err
	}

	info := toTrackInfo(t, s.player().IsLiked(t.ID))
	return &AddToQueueResponse{Accepted: true, Message: "Added to queue", Track: &info}, nil
}

func (s *PlayerService) RemoveFromQueue(ctx context.Context, req *IndexRequest) (*PlayerState, error) {
	return s.stateAfter(s.player().RemoveFromQueue(req.Index))
}

func (s *PlayerService) MoveUp(ctx context.Context, req *IndexRequest) (*PlayerState, error) {
	return s.stateAfter(s.player().MoveUp(req.Index))
}

func (s *PlayerService) MoveDown(ctx context.Context, req *IndexRequest) (*PlayerState, error) {
	return s.stateAfter(s.player().MoveDown(req.Index))
}

func (s *PlayerService) ClearQueue(ctx context.Context, req *Empty) (*PlayerState, error) {
	s.player().ClearQueue()
	return s.state(), nil
}

func (s *PlayerService) SearchSpotify(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	tracks, err := s.session.SearchSpotify(ctx, req.Query, req.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{Tracks: toTrackInfos(tracks, s.player().IsLiked)}, nil
}

func (s *PlayerService) ImportSpotifyPlaylist(ctx context.Context, req *ImportPlaylistRequest) (*ImportPlaylistResponse, error) {
	added, err := s.session.ImportSpotifyPlaylist(ctx, req.PlaylistURL)
	if err != nil {
		return nil, err
	}
	return &ImportPlaylistResponse{Added: added}, nil
}

// Audio backend reports. Stale reports are answered with FailedPrecondition
// so the backend can drop them.

func (s *PlayerService) ReportTimeUpdate(ctx context.Context, req *TimeUpdateRequest) (*Empty, error) {
	return &Empty{}, s.player().OnTimeUpdate(req.TrackID, time.Duration(req.PositionMs)*time.Millisecond)
}

func (s *PlayerService) ReportMetadata(ctx context.Context, req *MetadataRequest) (*Empty, error) {
	return &Empty{}, s.player().OnMetadataLoaded(req.TrackID, time.Duration(req.DurationMs)*time.Millisecond)
}

func (s *PlayerService) ReportEnded(ctx context.Context, req *TrackRequest) (*Empty, error) {
	return &Empty{}, s.player().OnEnded(req.TrackID)
}

func (s *PlayerService) ReportError(ctx context.Context, req *AudioErrorRequest) (*Empty, error) {
	return &Empty{}, s.player().OnError(req.TrackID, req.Message)
}

// Subscribe streams player notifications, starting with the current state.
// The handler goroutine is the only writer to the stream.
func (s *PlayerService) Subscribe(
	ctx context.Context,
	req *connect.Request[SubscribeRequest],
	stream *connect.ServerStream[Notification],
) error {
	notifManager := s.session.GetNotificationManager()

	sub := notifManager.Subscribe()
	defer notifManager.Unsubscribe(sub.ID())

	initial := &Notification{
		SequenceNo: sub.InitialSequenceNo(),
		Type:       "initial_state",
		State:      s.state(),
		Time:       time.Now(),
	}
	if err := stream.Send(initial); err != nil {
		return err
	}

	adapter := &notificationStreamAdapter{stream: stream, isLiked: s.player().IsLiked}
	if err := notifManager.Forward(ctx, sub, adapter); err != nil {
		if errors.Is(err, notification.ErrDropped) {
			return connect.NewError(connect.CodeResourceExhausted, err)
		}
		return err
	}
	return nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	stream  *connect.ServerStream[Notification]
	isLiked func(string) bool
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	return a.stream.Send(toNotification(n, a.isLiked))
}
