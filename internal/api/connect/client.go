package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/osa030/vibeflow/internal/app/preferences"
)

// Client calls the vibeflow RPCs over HTTP.
type Client struct {
	httpClient connect.HTTPClient
	baseURL    string
	opts       []connect.ClientOption
}

// NewClient creates a client for the server at baseURL.
// An empty token sends no API token header.
func NewClient(httpClient connect.HTTPClient, baseURL, token string) *Client {
	opts := []connect.ClientOption{connect.WithCodec(jsonCodec{})}
	if token != "" {
		opts = append(opts, connect.WithInterceptors(&clientTokenInterceptor{token: token}))
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		opts:       opts,
	}
}

func call[Req, Res any](ctx context.Context, c *Client, procedure string, req *Req) (*Res, error) {
	client := connect.NewClient[Req, Res](c.httpClient, c.baseURL+procedure, c.opts...)
	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Player

func (c *Client) GetState(ctx context.Context) (*PlayerState, error) {
	return call[Empty, PlayerState](ctx, c, PlayerGetStateProcedure, &Empty{})
}

func (c *Client) PlayAt(ctx context.Context, index int) (*PlayerState, error) {
	return call[IndexRequest, PlayerState](ctx, c, PlayerPlayAtProcedure, &IndexRequest{Index: index})
}

func (c *Client) TogglePlayPause(ctx context.Context) (*PlayerState, error) {
	return call[Empty, PlayerState](ctx, c, PlayerTogglePlayPauseProcedure, &Empty{})
}

func (c *Client) Next(ctx context.Context) (*PlayerState, error) {
	return call[Empty, PlayerState](ctx, c, PlayerNextProcedure, &Empty{})
}

func (c *Client) Previous(ctx context.Context) (*PlayerState, error) {
	return call[Empty, PlayerState](ctx, c, PlayerPreviousProcedure, &Empty{})
}

func (c *Client) SeekTo(ctx context.Context, positionMs int64) (*PlayerState, error) {
	return call[SeekRequest, PlayerState](ctx, c, PlayerSeekToProcedure, &SeekRequest{PositionMs: positionMs})
}

func (c *Client) SetVolume(ctx context.Context, volume int) (*PlayerState, error) {
	return call[VolumeRequest, PlayerState](ctx, c, PlayerSetVolumeProcedure, &VolumeRequest{Volume: volume})
}

func (c *Client) ToggleMute(ctx context.Context) (*PlayerState, error) {
	return call[Empty, PlayerState](ctx, c, PlayerToggleMuteProcedure, &Empty{})
}

func (c *Client) ToggleShuffle(ctx context.Context) (*PlayerState, error) {
	return call[Empty, PlayerState](ctx, c, PlayerToggleShuffleProcedure, &Empty{})
}

func (c *Client) ToggleRepeat(ctx context.Context) (*PlayerState, error) {
	return call[Empty, PlayerState](ctx, c, PlayerToggleRepeatProcedure, &Empty{})
}

func (c *Client) AddToQueue(ctx context.Context, trackID string) (*AddToQueueResponse, error) {
	return call[TrackRequest, AddToQueueResponse](ctx, c, PlayerAddToQueueProcedure, &TrackRequest{TrackID: trackID})
}

func (c *Client) RemoveFromQueue(ctx context.Context, index int) (*PlayerState, error) {
	return call[IndexRequest, PlayerState](ctx, c, PlayerRemoveFromQueueProcedure, &IndexRequest{Index: index})
}

func (c *Client) MoveUp(ctx context.Context, index int) (*PlayerState, error) {
	return call[IndexRequest, PlayerState](ctx, c, PlayerMoveUpProcedure, &IndexRequest{Index: index})
}

func (c *Client) MoveDown(ctx context.Context, index int) (*PlayerState, error) {
	return call[IndexRequest, PlayerState](ctx, c, PlayerMoveDownProcedure, &IndexRequest{Index: index})
}

func (c *Client) ClearQueue(ctx context.Context) (*PlayerState, error) {
	return call[Empty, PlayerState](ctx, c, PlayerClearQueueProcedure, &Empty{})
}

func (c *Client) SearchSpotify(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	return call[SearchRequest, SearchResponse](ctx, c, PlayerSearchSpotifyProcedure, &SearchRequest{Query: query, Limit: limit})
}

func (c *Client) ImportSpotifyPlaylist(ctx context.Context, playlistURL string) (*ImportPlaylistResponse, error) {
	return call[ImportPlaylistRequest, ImportPlaylistResponse](ctx, c, PlayerImportSpotifyPlaylistProcedure, &ImportPlaylistRequest{PlaylistURL: playlistURL})
}

func (c *Client) ReportTimeUpdate(ctx context.Context, trackID string, positionMs int64) error {
	_, err := call[TimeUpdateRequest, Empty](ctx, c, PlayerReportTimeUpdateProcedure, &TimeUpdateRequest{TrackID: trackID, PositionMs: positionMs})
	return err
}

func (c *Client) ReportMetadata(ctx context.Context, trackID string, durationMs int64) error {
	_, err := call[MetadataRequest, Empty](ctx, c, PlayerReportMetadataProcedure, &MetadataRequest{TrackID: trackID, DurationMs: durationMs})
	return err
}

func (c *Client) ReportEnded(ctx context.Context, trackID string) error {
	_, err := call[TrackRequest, Empty](ctx, c, PlayerReportEndedProcedure, &TrackRequest{TrackID: trackID})
	return err
}

func (c *Client) ReportError(ctx context.Context, trackID, message string) error {
	_, err := call[AudioErrorRequest, Empty](ctx, c, PlayerReportErrorProcedure, &AudioErrorRequest{TrackID: trackID, Message: message})
	return err
}

// Subscribe opens the notification stream. The caller must close it.
func (c *Client) Subscribe(ctx context.Context) (*connect.ServerStreamForClient[Notification], error) {
	client := connect.NewClient[SubscribeRequest, Notification](c.httpClient, c.baseURL+PlayerSubscribeProcedure, c.opts...)
	return client.CallServerStream(ctx, connect.NewRequest(&SubscribeRequest{}))
}

// Library

func (c *Client) ToggleLike(ctx context.Context, trackID string) (*ToggleLikeResponse, error) {
	return call[TrackRequest, ToggleLikeResponse](ctx, c, LibraryToggleLikeProcedure, &TrackRequest{TrackID: trackID})
}

func (c *Client) FollowArtist(ctx context.Context, artistID string) (*FollowResponse, error) {
	return call[ArtistRequest, FollowResponse](ctx, c, LibraryFollowArtistProcedure, &ArtistRequest{ArtistID: artistID})
}

func (c *Client) UnfollowArtist(ctx context.Context, artistID string) (*FollowResponse, error) {
	return call[ArtistRequest, FollowResponse](ctx, c, LibraryUnfollowArtistProcedure, &ArtistRequest{ArtistID: artistID})
}

func (c *Client) GetFavorites(ctx context.Context) (*FavoritesResponse, error) {
	return call[Empty, FavoritesResponse](ctx, c, LibraryGetFavoritesProcedure, &Empty{})
}

func (c *Client) ListPlaylists(ctx context.Context) (*ListPlaylistsResponse, error) {
	return call[Empty, ListPlaylistsResponse](ctx, c, LibraryListPlaylistsProcedure, &Empty{})
}

func (c *Client) GetPlaylist(ctx context.Context, playlistID string) (*PlaylistInfo, error) {
	return call[PlaylistRequest, PlaylistInfo](ctx, c, LibraryGetPlaylistProcedure, &PlaylistRequest{PlaylistID: playlistID})
}

func (c *Client) CreatePlaylist(ctx context.Context, name, description string) (*PlaylistInfo, error) {
	return call[CreatePlaylistRequest, PlaylistInfo](ctx, c, LibraryCreatePlaylistProcedure, &CreatePlaylistRequest{Name: name, Description: description})
}

func (c *Client) AddToPlaylist(ctx context.Context, playlistID, trackID string) (*PlaylistInfo, error) {
	return call[PlaylistTrackRequest, PlaylistInfo](ctx, c, LibraryAddToPlaylistProcedure, &PlaylistTrackRequest{PlaylistID: playlistID, TrackID: trackID})
}

func (c *Client) RemoveFromPlaylist(ctx context.Context, playlistID, trackID string) (*PlaylistInfo, error) {
	return call[PlaylistTrackRequest, PlaylistInfo](ctx, c, LibraryRemoveFromPlaylistProcedure, &PlaylistTrackRequest{PlaylistID: playlistID, TrackID: trackID})
}

func (c *Client) RenamePlaylist(ctx context.Context, req *RenamePlaylistRequest) (*PlaylistInfo, error) {
	return call[RenamePlaylistRequest, PlaylistInfo](ctx, c, LibraryRenamePlaylistProcedure, req)
}

func (c *Client) DeletePlaylist(ctx context.Context, playlistID string) error {
	_, err := call[PlaylistRequest, Empty](ctx, c, LibraryDeletePlaylistProcedure, &PlaylistRequest{PlaylistID: playlistID})
	return err
}

func (c *Client) QueuePlaylist(ctx context.Context, playlistID string) (*QueuePlaylistResponse, error) {
	return call[PlaylistRequest, QueuePlaylistResponse](ctx, c, LibraryQueuePlaylistProcedure, &PlaylistRequest{PlaylistID: playlistID})
}

func (c *Client) GetStats(ctx context.Context) (*StatsResponse, error) {
	return call[Empty, StatsResponse](ctx, c, LibraryGetStatsProcedure, &Empty{})
}

func (c *Client) GetPreferences(ctx context.Context) (*PreferencesResponse, error) {
	return call[Empty, PreferencesResponse](ctx, c, LibraryGetPreferencesProcedure, &Empty{})
}

func (c *Client) UpdatePreferences(ctx context.Context, prefs preferences.Preferences) (*PreferencesResponse, error) {
	return call[UpdatePreferencesRequest, PreferencesResponse](ctx, c, LibraryUpdatePreferencesProcedure, &UpdatePreferencesRequest{Preferences: prefs})
}

func (c *Client) ApplyEqualizerPreset(ctx context.Context, name string) (*PreferencesResponse, error) {
	return call[EqualizerPresetRequest, PreferencesResponse](ctx, c, LibraryApplyEqualizerPresetProcedure, &EqualizerPresetRequest{Name: name})
}

// Auth

func (c *Client) Login(ctx context.Context, email, password string) (*UserResponse, error) {
	return call[LoginRequest, UserResponse](ctx, c, AuthLoginProcedure, &LoginRequest{Email: email, Password: password})
}

func (c *Client) Register(ctx context.Context, email, password, displayName string) (*UserResponse, error) {
	return call[RegisterRequest, UserResponse](ctx, c, AuthRegisterProcedure, &RegisterRequest{Email: email, Password: password, DisplayName: displayName})
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := call[Empty, Empty](ctx, c, AuthLogoutProcedure, &Empty{})
	return err
}

func (c *Client) CurrentUser(ctx context.Context) (*UserResponse, error) {
	return call[Empty, UserResponse](ctx, c, AuthCurrentUserProcedure, &Empty{})
}

func (c *Client) ResetPassword(ctx context.Context, email string) error {
	_, err := call[ResetPasswordRequest, Empty](ctx, c, AuthResetPasswordProcedure, &ResetPasswordRequest{Email: email})
	return err
}
