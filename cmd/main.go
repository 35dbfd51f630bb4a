package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"tuneshift/internal/quota"
	"tuneshift/internal/server"
	"tuneshift/internal/services"
	"tuneshift/internal/shared"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	configPath := ""
	if _, err := os.Stat(defaultConfigPath); err == nil {
		if loaded, err := shared.LoadConfig(defaultConfigPath); err == nil {
			config = loaded
			configPath = defaultConfigPath
		}
	}

	opts := RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
		Budget:     quota.NewBudget(config.Convert.DailyQuotaUnits),
	}

	if svc, err := services.NewSpotifyService(config.Credentials.Spotify.ClientID, config.Credentials.Spotify.ClientSecret); err == nil {
		opts.Source = svc
	}

	if svc, err := services.NewYouTubeSearchService(config.Credentials.YouTube.APIKey); err == nil {
		opts.Search = svc
	}

	if flow, err := server.NewConsentFlow(config, configPath, logger); err == nil {
		opts.Tokens = flow
		opts.Writer = services.NewYouTubePlaylistWriter()
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "tuneshift",
		Usage:    "Convert Spotify playlists to YouTube playlists",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
