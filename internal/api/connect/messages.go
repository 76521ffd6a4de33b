package connect

import (
	"time"

	"github.com/osa030/vibeflow/internal/app/notification"
	"github.com/osa030/vibeflow/internal/app/playback"
	"github.com/osa030/vibeflow/internal/app/preferences"
	"github.com/osa030/vibeflow/internal/app/stats"
	"github.com/osa030/vibeflow/internal/domain/playlist"
	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/domain/user"
)

// Empty is the request or response of calls without a payload.
type Empty struct{}

// TrackInfo describes a track on the wire.
type TrackInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	ArtistID    string `json:"artist_id"`
	Album       string `json:"album,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
	CoverArtURL string `json:"cover_art_url,omitempty"`
	AudioURL    string `json:"audio_url"`
	Year        int    `json:"year,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Liked       bool   `json:"liked"`
}

// PlayerState is the player snapshot on the wire.
type PlayerState struct {
	SessionID       string      `json:"session_id"`
	Phase           string      `json:"phase"`
	Queue           []TrackInfo `json:"queue"`
	CurrentIndex    int         `json:"current_index"`
	Current         *TrackInfo  `json:"current,omitempty"`
	State           string      `json:"state"`
	IsPlaying       bool        `json:"is_playing"`
	ProgressPercent float64     `json:"progress_percent"`
	PositionMs      int64       `json:"position_ms"`
	DurationMs      int64       `json:"duration_ms"`
	Volume          int         `json:"volume"`
	Muted           bool        `json:"muted"`
	Shuffle         bool        `json:"shuffle"`
	Repeat          bool        `json:"repeat"`
}

// Notification is a player event on the wire.
type Notification struct {
	SequenceNo uint64       `json:"sequence_no"`
	Type       string       `json:"type"`
	Message    string       `json:"message,omitempty"`
	Track      *TrackInfo   `json:"track,omitempty"`
	State      *PlayerState `json:"state,omitempty"`
	Time       time.Time    `json:"time"`
}

// Player requests

type IndexRequest struct {
	Index int `json:"index"`
}

type SeekRequest struct {
	PositionMs int64 `json:"position_ms"`
}

type VolumeRequest struct {
	Volume int `json:"volume"`
}

type TrackRequest struct {
	TrackID string `json:"track_id"`
}

type AddToQueueResponse struct {
	Accepted bool       `json:"accepted"`
	Code     string     `json:"code,omitempty"`
	Message  string     `json:"message"`
	Track    *TrackInfo `json:"track,omitempty"`
}

type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type SearchResponse struct {
	Tracks []TrackInfo `json:"tracks"`
}

type ImportPlaylistRequest struct {
	PlaylistURL string `json:"playlist_url"`
}

type ImportPlaylistResponse struct {
	Added int `json:"added"`
}

// Audio backend reports

type TimeUpdateRequest struct {
	TrackID    string `json:"track_id"`
	PositionMs int64  `json:"position_ms"`
}

type MetadataRequest struct {
	TrackID    string `json:"track_id"`
	DurationMs int64  `json:"duration_ms"`
}

type AudioErrorRequest struct {
	TrackID string `json:"track_id"`
	Message string `json:"message"`
}

type SubscribeRequest struct{}

// Library messages

type ToggleLikeResponse struct {
	Liked bool `json:"liked"`
}

type ArtistRequest struct {
	ArtistID string `json:"artist_id"`
}

type FollowResponse struct {
	Following bool `json:"following"`
	Changed   bool `json:"changed"`
}

type FavoritesResponse struct {
	LikedTrackIDs     []string    `json:"liked_track_ids"`
	FollowedArtistIDs []string    `json:"followed_artist_ids"`
	LikedSongs        []TrackInfo `json:"liked_songs"`
}

type PlaylistInfo struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	IsDefault     bool        `json:"is_default"`
	Tracks        []TrackInfo `json:"tracks"`
	TotalDuration int64       `json:"total_duration_sec"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type ListPlaylistsResponse struct {
	Playlists []PlaylistInfo `json:"playlists"`
}

type CreatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type PlaylistRequest struct {
	PlaylistID string `json:"playlist_id"`
}

type PlaylistTrackRequest struct {
	PlaylistID string `json:"playlist_id"`
	TrackID    string `json:"track_id"`
}

type RenamePlaylistRequest struct {
	PlaylistID  string  `json:"playlist_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

type QueuePlaylistResponse struct {
	Added int `json:"added"`
}

type StatsResponse struct {
	Stats *stats.Stats `json:"stats"`
}

type PreferencesResponse struct {
	Preferences      preferences.Preferences `json:"preferences"`
	StreamingQuality string                  `json:"streaming_quality"`
}

// UpdatePreferencesRequest replaces the preferences. Volume and mute are
// owned by the player and ignored.
type UpdatePreferencesRequest struct {
	Preferences preferences.Preferences `json:"preferences"`
}

type EqualizerPresetRequest struct {
	Name string `json:"name"`
}

// Auth messages

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

type UserInfo struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

type UserResponse struct {
	User *UserInfo `json:"user,omitempty"`
}

// Converters

func toTrackInfo(t track.Track, liked bool) TrackInfo {
	return TrackInfo{
		ID:          t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		ArtistID:    t.ArtistID(),
		Album:       t.Album,
		DurationMs:  t.Duration.Milliseconds(),
		CoverArtURL: t.CoverArtURL,
		AudioURL:    t.AudioURL,
		Year:        t.Year,
		Genre:       t.Genre,
		Liked:       liked,
	}
}

func toTrackInfos(tracks []track.Track, isLiked func(string) bool) []TrackInfo {
	infos := make([]TrackInfo, len(tracks))
	for i, t := range tracks {
		infos[i] = toTrackInfo(t, isLiked(t.ID))
	}
	return infos
}

func toPlayerState(snap playback.Snapshot, isLiked func(string) bool) *PlayerState {
	s := &PlayerState{
		Queue:           toTrackInfos(snap.Queue, isLiked),
		CurrentIndex:    snap.CurrentIndex,
		State:           snap.State.String(),
		IsPlaying:       snap.IsPlaying(),
		ProgressPercent: snap.ProgressPercent,
		PositionMs:      snap.Position().Milliseconds(),
		DurationMs:      snap.Duration.Milliseconds(),
		Volume:          snap.Volume,
		Muted:           snap.Muted,
		Shuffle:         snap.Shuffle,
		Repeat:          snap.Repeat,
	}
	if snap.Current != nil {
		info := toTrackInfo(*snap.Current, isLiked(snap.Current.ID))
		s.Current = &info
	}
	return s
}

func toNotification(n *notification.Notification, isLiked func(string) bool) *Notification {
	out := &Notification{
		SequenceNo: n.SequenceNo,
		Type:       n.Type,
		Message:    n.Message,
		State:      toPlayerState(n.Snapshot, isLiked),
		Time:       n.Time,
	}
	if n.Track != nil {
		info := toTrackInfo(*n.Track, isLiked(n.Track.ID))
		out.Track = &info
	}
	return out
}

func toPlaylistInfo(p playlist.Playlist, isLiked func(string) bool) PlaylistInfo {
	return PlaylistInfo{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		IsDefault:     p.IsDefault(),
		Tracks:        toTrackInfos(p.Tracks, isLiked),
		TotalDuration: p.TotalDuration(),
		UpdatedAt:     p.UpdatedAt,
	}
}

func toUserInfo(u *user.User) *UserInfo {
	if u == nil {
		return nil
	}
	return &UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}
}
