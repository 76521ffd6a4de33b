package connect

import (
	"context"

	"github.com/osa030/vibeflow/internal/app/preferences"
	"github.com/osa030/vibeflow/internal/app/session"
)

// LibraryService implements the vibeflow.v1.LibraryService RPC.
// Every call except GetPreferences requires a signed-in user.
type LibraryService struct {
	session *session.Manager
}

// NewLibraryService creates a new LibraryService.
func NewLibraryService(session *session.Manager) *LibraryService {
	return &LibraryService{session: session}
}

func (s *LibraryService) isLiked(trackID string) bool {
	return s.session.Player().IsLiked(trackID)
}

func (s *LibraryService) ToggleLike(ctx context.Context, req *TrackRequest) (*ToggleLikeResponse, error) {
	liked, err := s.session.ToggleLike(ctx, req.TrackID)
	if err != nil {
		return nil, err
	}
	return &ToggleLikeResponse{Liked: liked}, nil
}

func (s *LibraryService) FollowArtist(ctx context.Context, req *ArtistRequest) (*FollowResponse, error) {
	changed, err := s.session.Player().FollowArtist(req.ArtistID)
	if err != nil {
		return nil, err
	}
	return &FollowResponse{Following: true, Changed: changed}, nil
}

func (s *LibraryService) UnfollowArtist(ctx context.Context, req *ArtistRequest) (*FollowResponse, error) {
	changed, err := s.session.Player().UnfollowArtist(req.ArtistID)
	if err != nil {
		return nil, err
	}
	return &FollowResponse{Following: false, Changed: changed}, nil
}

func (s *LibraryService) GetFavorites(ctx context.Context, req *Empty) (*FavoritesResponse, error) {
	player := s.session.Player()
	return &FavoritesResponse{
		LikedTrackIDs:     player.LikedTrackIDs(),
		FollowedArtistIDs: player.FollowedArtistIDs(),
		LikedSongs:        toTrackInfos(s.session.LikedSongs(), s.isLiked),
	}, nil
}

func (s *LibraryService) ListPlaylists(ctx context.Context, req *Empty) (*ListPlaylistsResponse, error) {
	lists, err := s.session.Library().Playlists(ctx)
	if err != nil {
		return nil, err
	}
	resp := &ListPlaylistsResponse{Playlists: make([]PlaylistInfo, len(lists))}
	for i, p := range lists {
		resp.Playlists[i] = toPlaylistInfo(p, s.isLiked)
	}
	return resp, nil
}

func (s *LibraryService) GetPlaylist(ctx context.Context, req *PlaylistRequest) (*PlaylistInfo, error) {
	p, err := s.session.Library().GetPlaylist(ctx, req.PlaylistID)
	if err != nil {
		return nil, err
	}
	info := toPlaylistInfo(*p, s.isLiked)
	return &info, nil
}

func (s *LibraryService) CreatePlaylist(ctx context.Context, req *CreatePlaylistRequest) (*PlaylistInfo, error) {
	p, err := s.session.Library().CreatePlaylist(ctx, req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	info := toPlaylistInfo(*p, s.isLiked)
	return &info, nil
}

func (s *LibraryService) AddToPlaylist(ctx context.Context, req *PlaylistTrackRequest) (*PlaylistInfo, error) {
	if _, err := s.session.AddToPlaylist(ctx, req.PlaylistID, req.TrackID); err != nil {
		return nil, err
	}
	return s.GetPlaylist(ctx, &PlaylistRequest{PlaylistID: req.PlaylistID})
}

func (s *LibraryService) RemoveFromPlaylist(ctx context.Context, req *PlaylistTrackRequest) (*PlaylistInfo, error) {
	if err := s.session.Library().RemoveFromPlaylist(ctx, req.PlaylistID, req.TrackID); err != nil {
		return nil, err
	}
	return s.GetPlaylist(ctx, &PlaylistRequest{PlaylistID: req.PlaylistID})
}

func (s *LibraryService) RenamePlaylist(ctx context.Context, req *RenamePlaylistRequest) (*PlaylistInfo, error) {
	lib := s.session.Library()
	if err := lib.RenamePlaylist(ctx, req.PlaylistID, req.Name); err != nil {
		return nil, err
	}
	if req.Description != nil {
		if err := lib.UpdateDescription(ctx, req.PlaylistID, *req.Description); err != nil {
			return nil, err
		}
	}
	return s.GetPlaylist(ctx, &PlaylistRequest{PlaylistID: req.PlaylistID})
}

func (s *LibraryService) DeletePlaylist(ctx context.Context, req *PlaylistRequest) (*Empty, error) {
	if err := s.session.Library().DeletePlaylist(ctx, req.PlaylistID); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *LibraryService) QueuePlaylist(ctx context.Context, req *PlaylistRequest) (*QueuePlaylistResponse, error) {
	added, err := s.session.QueuePlaylist(ctx, req.PlaylistID)
	if err != nil {
		return nil, err
	}
	return &QueuePlaylistResponse{Added: added}, nil
}

func (s *LibraryService) GetStats(ctx context.Context, req *Empty) (*StatsResponse, error) {
	st, err := s.session.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsResponse{Stats: st}, nil
}

func (s *LibraryService) GetPreferences(ctx context.Context, req *Empty) (*PreferencesResponse, error) {
	return &PreferencesResponse{
		Preferences:      s.session.Preferences().Get(),
		StreamingQuality: s.session.StreamingQuality(),
	}, nil
}

func (s *LibraryService) UpdatePreferences(ctx context.Context, req *UpdatePreferencesRequest) (*PreferencesResponse, error) {
	prefs, err := s.session.Preferences().Update(ctx, func(p *preferences.Preferences) {
		volume, muted := p.Volume, p.Muted
		*p = req.Preferences
		p.Volume, p.Muted = volume, muted
	})
	if err != nil {
		return nil, err
	}
	return &PreferencesResponse{
		Preferences:      prefs,
		StreamingQuality: s.session.StreamingQuality(),
	}, nil
}

func (s *LibraryService) ApplyEqualizerPreset(ctx context.Context, req *EqualizerPresetRequest) (*PreferencesResponse, error) {
	prefs, err := s.session.Preferences().ApplyEqualizerPreset(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	return &PreferencesResponse{
		Preferences:      prefs,
		StreamingQuality: s.session.StreamingQuality(),
	}, nil
}
