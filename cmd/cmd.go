// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// convertCommand handles playlist conversion operations
func convertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert Spotify playlists to YouTube",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a full conversion: fetch, match, and publish",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "title",
						Usage: "Destination playlist title (default: source name)",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Destination playlist description",
					},
					&cli.BoolFlag{
						Name:  "private",
						Usage: "Create the destination playlist as private",
					},
					&cli.FloatFlag{
						Name:  "threshold",
						Usage: "Acceptance threshold for matches (0..1)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent matching workers",
					},
					&cli.BoolFlag{
						Name:  "match-only",
						Usage: "Match tracks without publishing anything",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write a match report (csv, markdown, txt)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Report file path",
					},
				},
				Action: r.ConvertRun,
			},
			{
				Name:  "ui",
				Usage: "Interactive review: match, adjust the threshold, then publish",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "title",
						Usage: "Destination playlist title (default: source name)",
					},
					&cli.BoolFlag{
						Name:  "private",
						Usage: "Create the destination playlist as private",
					},
				},
				Action: r.ConvertUI,
			},
		},
	}
}

// spotifyCommand handles Spotify read operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "info",
				Usage: "Show playlist metadata",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "cover",
						Usage: "Save the playlist cover image through the local cache",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Cover image file path",
					},
				},
				Action: r.SpotifyInfo,
			},
			{
				Name:  "tracks",
				Usage: "List all tracks in a playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SpotifyTracks,
			},
		},
	}
}

// youtubeCommand handles YouTube operations
func youtubeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "youtube",
		Aliases: []string{"yt"},
		Usage:   "YouTube operations",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Search for video candidates",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum candidates to return",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.YouTubeSearch,
			},
			{
				Name:   "auth",
				Usage:  "Authorize YouTube access through the browser consent flow",
				Flags:  []cli.Flag{configFlag()},
				Action: r.YouTubeAuth,
			},
		},
	}
}

// cacheCommand handles the local thumbnail cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local thumbnail cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache entry count and size",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Delete all cached thumbnails",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheClear,
			},
		},
	}
}

// quotaCommand reports the configured API budget
func quotaCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "quota",
		Usage:  "Show the configured daily API budget and per-call costs",
		Action: r.QuotaShow,
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}
