// Package main provides the Spotify authorization tool. It runs the OAuth
// code flow once and prints the refresh token the server uses for catalog
// lookups.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/vibeflow/internal/infra/logger"
)

var (
	app          = kingpin.New("vibeflow-spotifyauth", "Obtain a Spotify refresh token for vibeflow")
	clientID     = app.Flag("client-id", "Spotify Client ID").Envar("SPOTIFY_CLIENT_ID").Required().String()
	clientSecret = app.Flag("client-secret", "Spotify Client Secret").Envar("SPOTIFY_CLIENT_SECRET").Required().String()
	port         = app.Flag("port", "Callback server port").Default("8888").Int()
	envFile      = app.Flag("write-env", "Store the refresh token in this dotenv file").String()
	timeout      = app.Flag("timeout", "How long to wait for the browser callback").Default("5m").Duration()
)

type callback struct {
	auth  *spotifyauth.Authenticator
	state string
	ch    chan *oauth2.Token
}

func main() {
	_ = godotenv.Load()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	closeLog, err := logger.Init(logger.Config{Output: "stderr", Level: "info"})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closeLog()

	if err := run(); err != nil {
		zlog.Error().Msgf("Authorization failed: %v", err)
		closeLog()
		os.Exit(1)
	}
}

func run() error {
	cb := &callback{
		auth: spotifyauth.New(
			spotifyauth.WithRedirectURL(fmt.Sprintf("http://127.0.0.1:%d/callback", *port)),
			spotifyauth.WithClientID(*clientID),
			spotifyauth.WithClientSecret(*clientSecret),
			spotifyauth.WithScopes(
				spotifyauth.ScopePlaylistReadPrivate,
				spotifyauth.ScopeUserLibraryRead,
			),
		),
		state: uuid.New().String(),
		ch:    make(chan *oauth2.Token, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", cb.complete)
	server := &http.Server{Addr: fmt.Sprintf(":%d", *port), Handler: mux}

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	fmt.Println("Open the following URL to authorize vibeflow:")
	fmt.Println()
	fmt.Println(cb.auth.AuthURL(cb.state))
	fmt.Println()

	var token *oauth2.Token
	select {
	case token = <-cb.ch:
	case err := <-serverErrCh:
		return errors.Wrap(err, "callback server")
	case <-time.After(*timeout):
		return errors.Newf("no callback within %v", *timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Warn().Msgf("Failed to shutdown callback server: %v", err)
	}

	if *envFile != "" {
		if err := writeEnv(*envFile, token.RefreshToken); err != nil {
			return err
		}
		zlog.Info().Msgf("Refresh token written to %s", *envFile)
		return nil
	}

	fmt.Println("Refresh token:")
	fmt.Println(token.RefreshToken)
	fmt.Println()
	fmt.Println("Set it in the config file under spotify.refresh_token or export it:")
	fmt.Printf("export SPOTIFY_REFRESH_TOKEN=%q\n", token.RefreshToken)
	return nil
}

// writeEnv merges the token into an existing dotenv file.
func writeEnv(path, refreshToken string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return errors.Wrapf(err, "failed to read %s", path)
		}
		env = map[string]string{}
	}
	env["SPOTIFY_REFRESH_TOKEN"] = refreshToken
	if err := godotenv.Write(env, path); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func (c *callback) complete(w http.ResponseWriter, r *http.Request) {
	if st := r.FormValue("state"); st != c.state {
		http.Error(w, "State mismatch", http.StatusForbidden)
		zlog.Warn().Msgf("State mismatch: got=%s", st)
		return
	}

	token, err := c.auth.Token(r.Context(), c.state, r)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusForbidden)
		zlog.Error().Msgf("Failed to get token: %v", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>vibeflow</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 20vh">
<h1>Authorization complete</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>
`)

	select {
	case c.ch <- token:
	default:
	}
}
