package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"tuneshift/internal/shared"
)

// YouTubeSearch searches for video candidates matching a free-text query.
func (r *Runner) YouTubeSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	if r.search == nil {
		return fmt.Errorf("%w: a youtube api key is required", shared.ErrMissingCredentials)
	}

	r.logger.Infof("searching youtube for %q", query)

	candidates, err := r.search.Search(ctx, query, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(candidates, true)
	}

	if len(candidates) == 0 {
		r.writePlain("No results\n")
		return nil
	}

	for i, c := range candidates {
		r.writePlain("%d. %s (%s) [%s]\n", i+1, c.Title, c.ChannelTitle, shared.FormatDuration(c.Duration))
		r.writePlain("   https://www.youtube.com/watch?v=%s\n", c.VideoID)
	}

	return nil
}

// YouTubeAuth runs the browser consent flow and persists the granted token.
func (r *Runner) YouTubeAuth(ctx context.Context, cmd *cli.Command) error {
	if r.tokens == nil {
		return fmt.Errorf("%w: youtube client_id and client_secret are required", shared.ErrMissingCredentials)
	}

	r.logger.Info("starting YouTube authorization")

	token, err := r.tokens.GetAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	r.writePlain("✓ YouTube authorization successful\n")
	if !token.Expiry.IsZero() {
		r.writePlain("Token expires: %s\n", token.Expiry.Format("2006-01-02 15:04:05"))
	}

	return nil
}
