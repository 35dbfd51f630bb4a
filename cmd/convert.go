package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"tuneshift/internal/formatter"
	"tuneshift/internal/services"
	"tuneshift/internal/shared"
	"tuneshift/internal/tasks"
	"tuneshift/internal/ui"
)

// ConvertRun runs a full Spotify → YouTube conversion.
func (r *Runner) ConvertRun(ctx context.Context, cmd *cli.Command) error {
	input := cmd.StringArg("playlist")
	if input == "" {
		return fmt.Errorf("%w: playlist URL or ID", shared.ErrMissingArgument)
	}

	playlistID, err := services.ParsePlaylistURL(input)
	if err != nil {
		return err
	}

	if r.source == nil || r.search == nil {
		return fmt.Errorf("%w: spotify credentials and a youtube api key are required", shared.ErrMissingCredentials)
	}

	opts := r.engineOpts(cmd)
	opts.MatchOnly = cmd.Bool("match-only")

	r.logger.Info("starting conversion", "playlist", playlistID, "threshold", opts.Threshold)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progressCh {
			switch update.Phase {
			case tasks.PhaseFetching:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.PhaseMatching:
				if update.Step == 0 {
					r.writePlain("\n🔍 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.PhaseAwaitingAuthorization:
				r.writePlain("\n🔑 %s\n", update.Message)
			case tasks.PhasePublishing:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	result, runErr := r.engine.Run(ctx, progressCh, playlistID, opts)
	close(progressCh)
	<-drained

	// The manifest survives failed runs, so a requested report is written
	// regardless of the outcome.
	if result != nil && result.Manifest != nil && cmd.IsSet("report") {
		path, werr := formatter.WriteManifest(result.Manifest, result.Summary, cmd.String("report"), cmd.String("output"))
		if werr != nil {
			r.logger.Warnf("failed to write report: %v", werr)
		} else {
			r.writePlain("\nReport written to %s\n", path)
		}
	}

	if runErr != nil {
		return runErr
	}

	s := result.Summary
	r.writePlain("\n")
	r.writePlainHeader("Conversion Complete")
	if result.Manifest.Playlist != nil {
		r.writePlain("Source: %s (%d tracks)\n", result.Manifest.Playlist.Name, result.Manifest.TotalSourceTracks)
	}
	r.writePlain("Matched: %d | Low confidence: %d | No candidate: %d | Failed queries: %d\n",
		s.Matched, s.LowConfidence, s.NoCandidate, s.QueryFailed)

	if result.Playlist != nil {
		r.writePlain("Published: %d/%d tracks\n", s.Published, s.Matched)
		r.writePlain("Playlist: %s\n", result.Playlist.URL)
	} else if !opts.MatchOnly && s.Matched == 0 {
		r.writePlain("Nothing matched above the threshold; no playlist was created.\n")
	}

	if s.FailedPublish > 0 {
		r.writePlain("Failed inserts: %d\n", s.FailedPublish)
	}
	if s.SkippedForQuota > 0 {
		r.writePlain("Skipped for quota: %d (re-run after the daily quota resets)\n", s.SkippedForQuota)
	}

	return nil
}

// ConvertUI launches the interactive review TUI for one playlist.
func (r *Runner) ConvertUI(ctx context.Context, cmd *cli.Command) error {
	input := cmd.StringArg("playlist")
	if input == "" {
		return fmt.Errorf("%w: playlist URL or ID", shared.ErrMissingArgument)
	}

	playlistID, err := services.ParsePlaylistURL(input)
	if err != nil {
		return err
	}

	if r.source == nil || r.search == nil {
		return fmt.Errorf("%w: spotify credentials and a youtube api key are required", shared.ErrMissingCredentials)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tuneshift-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, r.engine, playlistID, r.engineOpts(cmd))
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
