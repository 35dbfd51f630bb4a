package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"tuneshift/internal/formatter"
	"tuneshift/internal/repositories"
	"tuneshift/internal/services"
	"tuneshift/internal/shared"
)

// SpotifyInfo shows metadata for one playlist.
func (r *Runner) SpotifyInfo(ctx context.Context, cmd *cli.Command) error {
	input := cmd.StringArg("playlist")
	if input == "" {
		return fmt.Errorf("%w: playlist URL or ID", shared.ErrMissingArgument)
	}

	playlistID, err := services.ParsePlaylistURL(input)
	if err != nil {
		return err
	}

	if r.source == nil {
		return fmt.Errorf("%w: spotify credentials are required", shared.ErrMissingCredentials)
	}

	r.logger.Infof("fetching playlist info for %v", playlistID)

	info, err := r.source.PlaylistInfo(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(info, true)
	}

	r.writePlain("Name: %s\n", info.Name)
	if info.Description != "" {
		r.writePlain("Description: %s\n", info.Description)
	}
	if info.Owner != "" {
		r.writePlain("Owner: %s\n", info.Owner)
	}
	r.writePlain("Tracks: %d\n", info.TrackCount)
	r.writePlain("Visibility: %s\n", shared.VisibilityString(info.Public))

	if cmd.Bool("cover") {
		repo, closeDB, err := r.openThumbnailRepo()
		if err != nil {
			return err
		}
		defer closeDB()

		cache := repositories.NewThumbnailCache(repo, nil)
		path, err := formatter.SaveCover(ctx, cache, info, cmd.String("output"))
		if err != nil {
			return fmt.Errorf("failed to save cover image: %w", err)
		}
		r.writePlain("Cover saved to %s\n", path)
	}

	return nil
}

// SpotifyTracks lists every track in a playlist.
func (r *Runner) SpotifyTracks(ctx context.Context, cmd *cli.Command) error {
	input := cmd.StringArg("playlist")
	if input == "" {
		return fmt.Errorf("%w: playlist URL or ID", shared.ErrMissingArgument)
	}

	playlistID, err := services.ParsePlaylistURL(input)
	if err != nil {
		return err
	}

	if r.source == nil {
		return fmt.Errorf("%w: spotify credentials are required", shared.ErrMissingCredentials)
	}

	r.logger.Infof("fetching tracks for %v", playlistID)

	tracks, err := r.source.FetchTracks(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to fetch tracks: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	for i, track := range tracks {
		r.writePlain("%3d. %s - %s [%s]\n", i+1, track.Artist, track.Title, shared.FormatDuration(track.Duration))
	}
	r.writePlainln("%d tracks", len(tracks))

	return nil
}
