package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/osa030/vibeflow/internal/app/session"
	"github.com/osa030/vibeflow/internal/infra/config"
)

// Service names.
const (
	PlayerServiceName  = "vibeflow.v1.PlayerService"
	LibraryServiceName = "vibeflow.v1.LibraryService"
	AuthServiceName    = "vibeflow.v1.AuthService"
)

// Procedure paths.
const (
	PlayerGetStateProcedure              = "/" + PlayerServiceName + "/GetState"
	PlayerPlayAtProcedure                = "/" + PlayerServiceName + "/PlayAt"
	PlayerTogglePlayPauseProcedure       = "/" + PlayerServiceName + "/TogglePlayPause"
	PlayerNextProcedure                  = "/" + PlayerServiceName + "/Next"
	PlayerPreviousProcedure              = "/" + PlayerServiceName + "/Previous"
	PlayerSeekToProcedure                = "/" + PlayerServiceName + "/SeekTo"
	PlayerSetVolumeProcedure             = "/" + PlayerServiceName + "/SetVolume"
	PlayerToggleMuteProcedure            = "/" + PlayerServiceName + "/ToggleMute"
	PlayerToggleShuffleProcedure         = "/" + PlayerServiceName + "/ToggleShuffle"
	PlayerToggleRepeatProcedure          = "/" + PlayerServiceName + "/ToggleRepeat"
	PlayerAddToQueueProcedure            = "/" + PlayerServiceName + "/AddToQueue"
	PlayerRemoveFromQueueProcedure       = "/" + PlayerServiceName + "/RemoveFromQueue"
	PlayerMoveUpProcedure                = "/" + PlayerServiceName + "/MoveUp"
	PlayerMoveDownProcedure              = "/" + PlayerServiceName + "/MoveDown"
	PlayerClearQueueProcedure            = "/" + PlayerServiceName + "/ClearQueue"
	PlayerSearchSpotifyProcedure         = "/" + PlayerServiceName + "/SearchSpotify"
	PlayerImportSpotifyPlaylistProcedure = "/" + PlayerServiceName + "/ImportSpotifyPlaylist"
	PlayerReportTimeUpdateProcedure      = "/" + PlayerServiceName + "/ReportTimeUpdate"
	PlayerReportMetadataProcedure        = "/" + PlayerServiceName + "/ReportMetadata"
	PlayerReportEndedProcedure           = "/" + PlayerServiceName + "/ReportEnded"
	PlayerReportErrorProcedure           = "/" + PlayerServiceName + "/ReportError"
	PlayerSubscribeProcedure             = "/" + PlayerServiceName + "/Subscribe"

	LibraryToggleLikeProcedure           = "/" + LibraryServiceName + "/ToggleLike"
	LibraryFollowArtistProcedure         = "/" + LibraryServiceName + "/FollowArtist"
	LibraryUnfollowArtistProcedure       = "/" + LibraryServiceName + "/UnfollowArtist"
	LibraryGetFavoritesProcedure         = "/" + LibraryServiceName + "/GetFavorites"
	LibraryListPlaylistsProcedure        = "/" + LibraryServiceName + "/ListPlaylists"
	LibraryGetPlaylistProcedure          = "/" + LibraryServiceName + "/GetPlaylist"
	LibraryCreatePlaylistProcedure       = "/" + LibraryServiceName + "/CreatePlaylist"
	LibraryAddToPlaylistProcedure        = "/" + LibraryServiceName + "/AddToPlaylist"
	LibraryRemoveFromPlaylistProcedure   = "/" + LibraryServiceName + "/RemoveFromPlaylist"
	LibraryRenamePlaylistProcedure       = "/" + LibraryServiceName + "/RenamePlaylist"
	LibraryDeletePlaylistProcedure       = "/" + LibraryServiceName + "/DeletePlaylist"
	LibraryQueuePlaylistProcedure        = "/" + LibraryServiceName + "/QueuePlaylist"
	LibraryGetStatsProcedure             = "/" + LibraryServiceName + "/GetStats"
	LibraryGetPreferencesProcedure       = "/" + LibraryServiceName + "/GetPreferences"
	LibraryUpdatePreferencesProcedure    = "/" + LibraryServiceName + "/UpdatePreferences"
	LibraryApplyEqualizerPresetProcedure = "/" + LibraryServiceName + "/ApplyEqualizerPreset"

	AuthLoginProcedure         = "/" + AuthServiceName + "/Login"
	AuthRegisterProcedure      = "/" + AuthServiceName + "/Register"
	AuthLogoutProcedure        = "/" + AuthServiceName + "/Logout"
	AuthCurrentUserProcedure   = "/" + AuthServiceName + "/CurrentUser"
	AuthResetPasswordProcedure = "/" + AuthServiceName + "/ResetPassword"
)

// unary registers a plain request/response function as a connect handler.
func unary[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *Req) (*Res, error),
	opts ...connect.HandlerOption,
) {
	mux.Handle(procedure, connect.NewUnaryHandler(
		procedure,
		func(ctx context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
			res, err := fn(ctx, req.Msg)
			if err != nil {
				return nil, toConnectError(err)
			}
			return connect.NewResponse(res), nil
		},
		opts...,
	))
}

// NewHandler returns the HTTP handler serving every RPC of the session.
// When an API token is configured, every call must carry it.
func NewHandler(sess *session.Manager, cfg *config.Config) http.Handler {
	opts := []connect.HandlerOption{connect.WithCodec(jsonCodec{})}
	if cfg.Server.APIToken != "" {
		opts = append(opts, connect.WithInterceptors(NewTokenInterceptor(cfg.Server.APIToken)))
	}

	mux := http.NewServeMux()

	player := NewPlayerService(sess, cfg)
	unary(mux, PlayerGetStateProcedure, player.GetState, opts...)
	unary(mux, PlayerPlayAtProcedure, player.PlayAt, opts...)
	unary(mux, PlayerTogglePlayPauseProcedure, player.TogglePlayPause, opts...)
	unary(mux, PlayerNextProcedure, player.Next, opts...)
	unary(mux, PlayerPreviousProcedure, player.Previous, opts...)
	unary(mux, PlayerSeekToProcedure, player.SeekTo, opts...)
	unary(mux, PlayerSetVolumeProcedure, player.SetVolume, opts...)
	unary(mux, PlayerToggleMuteProcedure, player.ToggleMute, opts...)
	unary(mux, PlayerToggleShuffleProcedure, player.ToggleShuffle, opts...)
	unary(mux, PlayerToggleRepeatProcedure, player.ToggleRepeat, opts...)
	unary(mux, PlayerAddToQueueProcedure, player.AddToQueue, opts...)
	unary(mux, PlayerRemoveFromQueueProcedure, player.RemoveFromQueue, opts...)
	unary(mux, PlayerMoveUpProcedure, player.MoveUp, opts...)
	unary(mux, PlayerMoveDownProcedure, player.MoveDown, opts...)
	unary(mux, PlayerClearQueueProcedure, player.ClearQueue, opts...)
	unary(mux, PlayerSearchSpotifyProcedure, player.SearchSpotify, opts...)
	unary(mux, PlayerImportSpotifyPlaylistProcedure, player.ImportSpotifyPlaylist, opts...)
	unary(mux, PlayerReportTimeUpdateProcedure, player.ReportTimeUpdate, opts...)
	unary(mux, PlayerReportMetadataProcedure, player.ReportMetadata, opts...)
	unary(mux, PlayerReportEndedProcedure, player.ReportEnded, opts...)
	unary(mux, PlayerReportErrorProcedure, player.ReportError, opts...)
	mux.Handle(PlayerSubscribeProcedure, connect.NewServerStreamHandler(
		PlayerSubscribeProcedure,
		player.Subscribe,
		opts...,
	))

	library := NewLibraryService(sess)
	unary(mux, LibraryToggleLikeProcedure, library.ToggleLike, opts...)
	unary(mux, LibraryFollowArtistProcedure, library.FollowArtist, opts...)
	unary(mux, LibraryUnfollowArtistProcedure, library.UnfollowArtist, opts...)
	unary(mux, LibraryGetFavoritesProcedure, library.GetFavorites, opts...)
	unary(mux, LibraryListPlaylistsProcedure, library.ListPlaylists, opts...)
	unary(mux, LibraryGetPlaylistProcedure, library.GetPlaylist, opts...)
	unary(mux, LibraryCreatePlaylistProcedure, library.CreatePlaylist, opts...)
	unary(mux, LibraryAddToPlaylistProcedure, library.AddToPlaylist, opts...)
	unary(mux, LibraryRemoveFromPlaylistProcedure, library.RemoveFromPlaylist, opts...)
	unary(mux, LibraryRenamePlaylistProcedure, library.RenamePlaylist, opts...)
	unary(mux, LibraryDeletePlaylistProcedure, library.DeletePlaylist, opts...)
	unary(mux, LibraryQueuePlaylistProcedure, library.QueuePlaylist, opts...)
	unary(mux, LibraryGetStatsProcedure, library.GetStats, opts...)
	unary(mux, LibraryGetPreferencesProcedure, library.GetPreferences, opts...)
	unary(mux, LibraryUpdatePreferencesProcedure, library.UpdatePreferences, opts...)
	unary(mux, LibraryApplyEqualizerPresetProcedure, library.ApplyEqualizerPreset, opts...)

	authSvc := NewAuthService(sess.Auth())
	unary(mux, AuthLoginProcedure, authSvc.Login, opts...)
	unary(mux, AuthRegisterProcedure, authSvc.Register, opts...)
	unary(mux, AuthLogoutProcedure, authSvc.Logout, opts...)
	unary(mux, AuthCurrentUserProcedure, authSvc.CurrentUser, opts...)
	unary(mux, AuthResetPasswordProcedure, authSvc.ResetPassword, opts...)

	return mux
}
