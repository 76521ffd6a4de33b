// Package main provides the player CLI.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/vibeflow/internal/api/connect"
)

var (
	app    = kingpin.New("vibeflow", "vibeflow player client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").Envar("VIBEFLOW_SERVER").String()
	token  = app.Flag("token", "API token (or set VIBEFLOW_API_TOKEN env)").Envar("VIBEFLOW_API_TOKEN").String()

	// transport
	stateCmd    = app.Command("state", "Show the player state").Alias("status")
	playCmd     = app.Command("play", "Play the track at a queue index")
	playIndex   = playCmd.Arg("index", "Queue index (0-based)").Required().Int()
	toggleCmd   = app.Command("toggle", "Toggle play/pause")
	nextCmd     = app.Command("next", "Skip to the next track")
	prevCmd     = app.Command("prev", "Restart or go to the previous track")
	seekCmd     = app.Command("seek", "Seek within the current track")
	seekTo      = seekCmd.Arg("position", "Position, e.g. 1m30s").Required().Duration()
	volumeCmd   = app.Command("volume", "Set the volume")
	volumeLevel = volumeCmd.Arg("level", "Volume 0-100").Required().Int()
	muteCmd     = app.Command("mute", "Toggle mute")
	shuffleCmd  = app.Command("shuffle", "Toggle shuffle")
	repeatCmd   = app.Command("repeat", "Toggle repeat")

	// queue
	addCmd      = app.Command("add", "Add a track to the queue")
	addTrackID  = addCmd.Arg("track-id", "Catalog id or Spotify track id/URI/URL").Required().String()
	removeCmd   = app.Command("remove", "Remove the track at a queue index")
	removeIndex = removeCmd.Arg("index", "Queue index").Required().Int()
	upCmd       = app.Command("up", "Move a queued track up")
	upIndex     = upCmd.Arg("index", "Queue index").Required().Int()
	downCmd     = app.Command("down", "Move a queued track down")
	downIndex   = downCmd.Arg("index", "Queue index").Required().Int()
	clearCmd    = app.Command("clear", "Clear the queue")
	searchCmd   = app.Command("search", "Search Spotify")
	searchQuery = searchCmd.Arg("query", "Search terms").Required().Strings()
	searchLimit = searchCmd.Flag("limit", "Maximum results").Default("10").Int()
	importCmd   = app.Command("import", "Append a Spotify playlist to the queue")
	importURL   = importCmd.Arg("playlist-url", "Spotify playlist URL").Required().String()

	// library
	likeCmd          = app.Command("like", "Toggle the like on a track")
	likeTrackID      = likeCmd.Arg("track-id", "Track id").Required().String()
	followCmd        = app.Command("follow", "Follow an artist")
	followArtistID   = followCmd.Arg("artist-id", "Artist id").Required().String()
	unfollowCmd      = app.Command("unfollow", "Unfollow an artist")
	unfollowArtistID = unfollowCmd.Arg("artist-id", "Artist id").Required().String()
	favoritesCmd     = app.Command("favorites", "Show liked songs and followed artists")
	playlistsCmd     = app.Command("playlists", "List playlists")
	createCmd        = app.Command("create-playlist", "Create a playlist")
	createName       = createCmd.Arg("name", "Playlist name").Required().String()
	createDesc       = createCmd.Flag("description", "Playlist description").String()
	saveCmd          = app.Command("save", "Add a track to a playlist")
	savePlaylistID   = saveCmd.Arg("playlist-id", "Playlist id").Required().String()
	saveTrackID      = saveCmd.Arg("track-id", "Track id").Required().String()
	unsaveCmd        = app.Command("unsave", "Remove a track from a playlist")
	unsavePlaylistID = unsaveCmd.Arg("playlist-id", "Playlist id").Required().String()
	unsaveTrackID    = unsaveCmd.Arg("track-id", "Track id").Required().String()
	deleteCmd        = app.Command("delete-playlist", "Delete a playlist")
	deletePlaylistID = deleteCmd.Arg("playlist-id", "Playlist id").Required().String()
	queuePlCmd       = app.Command("queue-playlist", "Append a saved playlist to the queue")
	queuePlaylistID  = queuePlCmd.Arg("playlist-id", "Playlist id").Required().String()
	statsCmd         = app.Command("stats", "Show listening stats")
	prefsCmd         = app.Command("prefs", "Show preferences")
	eqCmd            = app.Command("eq", "Apply an equalizer preset")
	eqPreset         = eqCmd.Arg("preset", "Preset name").Required().String()
	autoplayCmd      = app.Command("autoplay", "Turn autoplay on or off")
	autoplayMode     = autoplayCmd.Arg("mode", "on or off").Required().Enum("on", "off")

	// account
	loginCmd      = app.Command("login", "Sign in")
	loginEmail    = loginCmd.Arg("email", "Email").Required().String()
	loginPassword = loginCmd.Arg("password", "Password").Required().String()
	registerCmd   = app.Command("register", "Create an account")
	regEmail      = registerCmd.Arg("email", "Email").Required().String()
	regPassword   = registerCmd.Arg("password", "Password").Required().String()
	regName       = registerCmd.Arg("display-name", "Display name").String()
	logoutCmd     = app.Command("logout", "Sign out")
	whoamiCmd     = app.Command("whoami", "Show the signed-in user")
	resetCmd      = app.Command("reset-password", "Request a password reset")
	resetEmail    = resetCmd.Arg("email", "Email").Required().String()

	// subscribe command
	subscribeCmd = app.Command("subscribe", "Subscribe to player notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewClient(http.DefaultClient, *server, *token)
	ctx := context.Background()

	if command == subscribeCmd.FullCommand() {
		subscribe(ctx, client)
		return
	}
	if err := execute(ctx, client, command); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, client *apiconnect.Client, command string) error {
	switch command {
	case stateCmd.FullCommand():
		return printState(client.GetState(ctx))
	case playCmd.FullCommand():
		return printState(client.PlayAt(ctx, *playIndex))
	case toggleCmd.FullCommand():
		return printState(client.TogglePlayPause(ctx))
	case nextCmd.FullCommand():
		return printState(client.Next(ctx))
	case prevCmd.FullCommand():
		return printState(client.Previous(ctx))
	case seekCmd.FullCommand():
		return printState(client.SeekTo(ctx, seekTo.Milliseconds()))
	case volumeCmd.FullCommand():
		return printState(client.SetVolume(ctx, *volumeLevel))
	case muteCmd.FullCommand():
		return printState(client.ToggleMute(ctx))
	case shuffleCmd.FullCommand():
		return printState(client.ToggleShuffle(ctx))
	case repeatCmd.FullCommand():
		return printState(client.ToggleRepeat(ctx))

	case addCmd.FullCommand():
		resp, err := client.AddToQueue(ctx, *addTrackID)
		if err != nil {
			return err
		}
		if resp.Accepted {
			fmt.Printf("Success: %s (%s)\n", resp.Message, formatTrack(resp.Track))
		} else {
			fmt.Printf("Rejected [%s]: %s\n", resp.Code, resp.Message)
		}
		return nil
	case removeCmd.FullCommand():
		return printState(client.RemoveFromQueue(ctx, *removeIndex))
	case upCmd.FullCommand():
		return printState(client.MoveUp(ctx, *upIndex))
	case downCmd.FullCommand():
		return printState(client.MoveDown(ctx, *downIndex))
	case clearCmd.FullCommand():
		return printState(client.ClearQueue(ctx))
	case searchCmd.FullCommand():
		resp, err := client.SearchSpotify(ctx, strings.Join(*searchQuery, " "), *searchLimit)
		if err != nil {
			return err
		}
		for _, t := range resp.Tracks {
			fmt.Printf("  %-40s %s\n", t.ID, formatTrack(&t))
		}
		return nil
	case importCmd.FullCommand():
		resp, err := client.ImportSpotifyPlaylist(ctx, *importURL)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d tracks\n", resp.Added)
		return nil

	case likeCmd.FullCommand():
		resp, err := client.ToggleLike(ctx, *likeTrackID)
		if err != nil {
			return err
		}
		fmt.Printf("Liked: %v\n", resp.Liked)
		return nil
	case followCmd.FullCommand():
		return printFollow(client.FollowArtist(ctx, *followArtistID))
	case unfollowCmd.FullCommand():
		return printFollow(client.UnfollowArtist(ctx, *unfollowArtistID))
	case favoritesCmd.FullCommand():
		resp, err := client.GetFavorites(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Liked songs (%d):\n", len(resp.LikedSongs))
		for _, t := range resp.LikedSongs {
			fmt.Printf("  %s\n", formatTrack(&t))
		}
		fmt.Printf("Followed artists: %s\n", strings.Join(resp.FollowedArtistIDs, ", "))
		return nil
	case playlistsCmd.FullCommand():
		resp, err := client.ListPlaylists(ctx)
		if err != nil {
			return err
		}
		for _, p := range resp.Playlists {
			fmt.Printf("  %-45s %-20s %3d tracks %s\n", p.ID, p.Name, len(p.Tracks), formatDuration(time.Duration(p.TotalDuration)*time.Second))
		}
		return nil
	case createCmd.FullCommand():
		return printPlaylist(client.CreatePlaylist(ctx, *createName, *createDesc))
	case saveCmd.FullCommand():
		return printPlaylist(client.AddToPlaylist(ctx, *savePlaylistID, *saveTrackID))
	case unsaveCmd.FullCommand():
		return printPlaylist(client.RemoveFromPlaylist(ctx, *unsavePlaylistID, *unsaveTrackID))
	case deleteCmd.FullCommand():
		if err := client.DeletePlaylist(ctx, *deletePlaylistID); err != nil {
			return err
		}
		fmt.Println("Playlist deleted")
		return nil
	case queuePlCmd.FullCommand():
		resp, err := client.QueuePlaylist(ctx, *queuePlaylistID)
		if err != nil {
			return err
		}
		fmt.Printf("Queued %d tracks\n", resp.Added)
		return nil
	case statsCmd.FullCommand():
		resp, err := client.GetStats(ctx)
		if err != nil {
			return err
		}
		printStats(resp)
		return nil
	case prefsCmd.FullCommand():
		return printPrefs(client.GetPreferences(ctx))
	case eqCmd.FullCommand():
		return printPrefs(client.ApplyEqualizerPreset(ctx, *eqPreset))
	case autoplayCmd.FullCommand():
		current, err := client.GetPreferences(ctx)
		if err != nil {
			return err
		}
		prefs := current.Preferences
		prefs.Playback.Autoplay = *autoplayMode == "on"
		return printPrefs(client.UpdatePreferences(ctx, prefs))

	case loginCmd.FullCommand():
		return printUser(client.Login(ctx, *loginEmail, *loginPassword))
	case registerCmd.FullCommand():
		return printUser(client.Register(ctx, *regEmail, *regPassword, *regName))
	case logoutCmd.FullCommand():
		if err := client.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Signed out")
		return nil
	case whoamiCmd.FullCommand():
		return printUser(client.CurrentUser(ctx))
	case resetCmd.FullCommand():
		if err := client.ResetPassword(ctx, *resetEmail); err != nil {
			return err
		}
		fmt.Println("If the address is registered, a reset link is on its way")
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

func subscribe(ctx context.Context, client *apiconnect.Client) {
	stream, err := client.Subscribe(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		os.Exit(0)
	}()

	for stream.Receive() {
		printNotification(stream.Msg())
	}

	if err := stream.Err(); err != nil {
		fmt.Printf("Stream error: %v\n", err)
	}
}
