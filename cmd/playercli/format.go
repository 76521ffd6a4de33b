package main

import (
	"fmt"
	"strings"
	"time"

	apiconnect "github.com/osa030/vibeflow/internal/api/connect"
)

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func formatTrack(t *apiconnect.TrackInfo) string {
	if t == nil {
		return "-"
	}
	heart := " "
	if t.Liked {
		heart = "♥"
	}
	return fmt.Sprintf("%s %s - %s [%s]", heart, t.Title, t.Artist, formatDuration(time.Duration(t.DurationMs)*time.Millisecond))
}

func formatPlayback(s *apiconnect.PlayerState) string {
	switch s.State {
	case "playing":
		return "▶️  Playing"
	case "paused":
		return "⏸  Paused"
	case "idle":
		return "⏹  Idle"
	default:
		return "❓ Unknown"
	}
}

func printState(s *apiconnect.PlayerState, err error) error {
	if err != nil {
		return err
	}

	fmt.Printf("Session: %s (%s)\n", s.SessionID, s.Phase)
	fmt.Printf("State:   %s\n", formatPlayback(s))
	if s.Current != nil {
		fmt.Printf("Current: %s\n", formatTrack(s.Current))
		fmt.Printf("Time:    %s / %s (%.1f%%)\n",
			formatDuration(time.Duration(s.PositionMs)*time.Millisecond),
			formatDuration(time.Duration(s.DurationMs)*time.Millisecond),
			s.ProgressPercent)
	}

	volume := fmt.Sprintf("%d%%", s.Volume)
	if s.Muted {
		volume += " (muted)"
	}
	fmt.Printf("Volume:  %s  Shuffle: %v  Repeat: %v\n", volume, s.Shuffle, s.Repeat)

	fmt.Printf("Queue (%d):\n", len(s.Queue))
	for i, t := range s.Queue {
		marker := " "
		if i == s.CurrentIndex {
			marker = ">"
		}
		fmt.Printf(" %s %2d. %s\n", marker, i, formatTrack(&t))
	}
	return nil
}

func printFollow(resp *apiconnect.FollowResponse, err error) error {
	if err != nil {
		return err
	}
	if !resp.Changed {
		fmt.Printf("Nothing changed (following: %v)\n", resp.Following)
		return nil
	}
	fmt.Printf("Following: %v\n", resp.Following)
	return nil
}

func printPlaylist(p *apiconnect.PlaylistInfo, err error) error {
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", p.Name, p.ID)
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
	for i, t := range p.Tracks {
		fmt.Printf("  %2d. %s\n", i+1, formatTrack(&t))
	}
	return nil
}

func printStats(resp *apiconnect.StatsResponse) {
	s := resp.Stats
	if s == nil {
		fmt.Println("No stats")
		return
	}
	fmt.Printf("Listening time: %s\n", s.TotalListeningTime.Round(time.Second))
	fmt.Printf("Songs played:   %d\n", s.SongsPlayed)

	fmt.Println("Top artists:")
	for _, c := range s.TopArtists {
		fmt.Printf("  %-30s %d\n", c.Name, c.Count)
	}
	fmt.Println("Top genres:")
	for _, c := range s.TopGenres {
		fmt.Printf("  %-30s %d\n", c.Name, c.Count)
	}
	fmt.Println("Most played:")
	for _, t := range s.MostPlayed {
		fmt.Printf("  %-30s %-25s %d\n", t.Title, t.Artist, t.PlayCount)
	}
}

func printPrefs(resp *apiconnect.PreferencesResponse, err error) error {
	if err != nil {
		return err
	}
	p := resp.Preferences
	fmt.Printf("Streaming quality: %s (effective %s)\n", p.Playback.StreamingQuality, resp.StreamingQuality)
	fmt.Printf("Download quality:  %s\n", p.Playback.DownloadQuality)
	fmt.Printf("Crossfade:         %v (%ds)\n", p.Playback.Crossfade, p.Playback.CrossfadeSeconds)
	fmt.Printf("Autoplay:          %v\n", p.Playback.Autoplay)
	fmt.Printf("Volume:            %d (muted: %v)\n", p.Volume, p.Muted)
	fmt.Printf("Equalizer:         enabled=%v preset=%s bands=%v\n", p.Equalizer.Enabled, p.Equalizer.Preset, p.Equalizer.Bands)
	fmt.Printf("Theme:             %s\n", p.Display.Theme)
	return nil
}

func printUser(resp *apiconnect.UserResponse, err error) error {
	if err != nil {
		return err
	}
	if resp.User == nil {
		fmt.Println("Not signed in")
		return nil
	}
	u := resp.User
	name := u.DisplayName
	if name == "" {
		name = strings.SplitN(u.Email, "@", 2)[0]
	}
	fmt.Printf("Signed in as %s <%s> (id %s)\n", name, u.Email, u.ID)
	return nil
}

func printNotification(n *apiconnect.Notification) {
	fmt.Printf("\n[Sequence: %d] === %s ===\n", n.SequenceNo, strings.ToUpper(strings.ReplaceAll(n.Type, "_", " ")))
	if n.Message != "" {
		fmt.Printf("  %s\n", n.Message)
	}
	if n.Track != nil {
		fmt.Printf("  Track: %s\n", formatTrack(n.Track))
	}
	if n.State != nil && n.Type == "initial_state" {
		_ = printState(n.State, nil)
	}
}
