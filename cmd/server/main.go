// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/vibeflow/internal/api/connect"
	"github.com/osa030/vibeflow/internal/app/filter"
	"github.com/osa030/vibeflow/internal/app/session"
	"github.com/osa030/vibeflow/internal/domain/track"
	"github.com/osa030/vibeflow/internal/infra/catalog"
	"github.com/osa030/vibeflow/internal/infra/config"
	"github.com/osa030/vibeflow/internal/infra/logger"
	"github.com/osa030/vibeflow/internal/infra/spotify"
	"github.com/osa030/vibeflow/internal/infra/store"
)

var (
	app        = kingpin.New("vibeflow-server", "vibeflow music player server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	jsonLogs   = app.Flag("json-logs", "Write JSON log lines to stdout").Bool()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
		JSON:   *jsonLogs,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closeLog, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closeLog()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// Run server (defer ensures shutdown hook is called)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		closeLog()
		os.Exit(1)
	}
}

// loadConfig reads the config file. A missing file falls back to defaults
// so the server starts with the bundled catalog.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		zlog.Warn().Msgf("Config file %s not found, using defaults", path)
		return config.Default()
	}
	zlog.Info().Msgf("Loading config from %s", path)
	return config.Load(path)
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	st, err := store.Open(ctx, store.Config{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		Redis: store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			zlog.Error().Msgf("Failed to close store: %v", err)
		}
	}()

	queue, err := loadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	opts := session.Options{Queue: queue}
	if cfg.Spotify.Enabled() {
		spotifyClient, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return fmt.Errorf("failed to create Spotify client: %w", err)
		}
		if err := validatePlaylist(ctx, cfg, spotifyClient); err != nil {
			return fmt.Errorf("playlist validation failed: %w", err)
		}
		opts.Spotify = spotifyClient
	} else {
		zlog.Info().Msg("Spotify credentials not configured, using the local catalog only")
	}

	sessionMgr, err := session.NewManager(ctx, cfg, st, opts)
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}
	if err := sessionMgr.Start(ctx); err != nil {
		sessionMgr.Close()
		return fmt.Errorf("failed to start session: %w", err)
	}

	serverAddr := cfg.Server.Addr
	server := &http.Server{
		Addr:    serverAddr,
		Handler: h2c.NewHandler(apiconnect.NewHandler(sessionMgr, cfg), &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case <-sessionMgr.Done():
		zlog.Info().Msg("Session ended, shutting down...")
	case err := <-serverErrCh:
		sessionMgr.Close()
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close session manager first to terminate active streams
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// loadCatalog returns the starting queue: the configured catalog file or
// the bundled one.
func loadCatalog(cfg *config.Config) ([]track.Track, error) {
	if cfg.Catalog.Path == "" {
		tracks := catalog.Default()
		zlog.Info().Msgf("Loaded bundled catalog: tracks=%d", len(tracks))
		return tracks, nil
	}
	tracks, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	zlog.Info().Msgf("Loaded catalog from %s: tracks=%d", cfg.Catalog.Path, len(tracks))
	return tracks, nil
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	fmt.Printf("  %-30s - %s [codes: %s]\n", "market_filter", "Rejects tracks not playable in the configured market (always on)", "market_restriction")
	fmt.Printf("  %-30s - %s [codes: %s]\n", "duplicate_track_filter", "Rejects tracks already in the queue", "duplicate_track")
	for _, factory := range filter.GetRegistered() {
		f := factory()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// validatePlaylist checks that the configured import playlist exists on
// Spotify, retrying transient failures during startup.
func validatePlaylist(ctx context.Context, cfg *config.Config, spotifyClient *spotify.Client) error {
	url := cfg.Catalog.SpotifyPlaylist
	if url == "" {
		return nil
	}

	maxRetries := 5
	baseDelay := 1 * time.Second

	zlog.Info().Msgf("Validating import playlist: url=%s", url)

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			delay := baseDelay * time.Duration(1<<uint(i-1))
			zlog.Info().Msgf("Retrying playlist validation in %v...", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := spotifyClient.CheckPlaylistExists(ctx, url); err != nil {
			lastErr = err
			zlog.Warn().Msgf("Failed to validate playlist (attempt %d/%d): %v", i+1, maxRetries, err)
			continue
		}

		zlog.Info().Msg("Import playlist validated successfully")
		return nil
	}
	return fmt.Errorf("playlist %s: failed after %d attempts: %v", url, maxRetries, lastErr)
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// sh -c allows redirection and pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
