package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"tuneshift/internal/match"
	"tuneshift/internal/quota"
	"tuneshift/internal/services"
	"tuneshift/internal/shared"
)

// EngineOpts contains configuration for one conversion run.
type EngineOpts struct {
	Title       string  // Destination playlist title (default: source name)
	Description string  // Destination playlist description
	Private     bool    // Create the destination playlist as private
	Threshold   float64 // Acceptance threshold (default: match.DefaultThreshold)
	MinViable   float64 // Viability floor (default: match.DefaultMinViable)
	SearchLimit int     // Candidates fetched per track (default: 5)
	NumWorkers  int     // Concurrent matching workers (default: 4, max: 10)
	RateLimit   float64 // Search queries per second (default: 3)
	MatchOnly   bool    // Stop after matching; no authorization or writes
}

func (o *EngineOpts) applyDefaults() {
	if o.Threshold <= 0 {
		o.Threshold = match.DefaultThreshold
	}
	if o.MinViable <= 0 {
		o.MinViable = match.DefaultMinViable
	}
	if o.SearchLimit <= 0 {
		o.SearchLimit = 5
	}
	if o.NumWorkers <= 0 {
		o.NumWorkers = 4
	}
	if o.NumWorkers > 10 {
		o.NumWorkers = 10
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 3.0
	}
}

const (
	maxPublishRetries  = 3
	defaultBackoffBase = 500 * time.Millisecond
	maxBackoff         = 4 * time.Second
)

// ConversionEngine orchestrates a full conversion run.
type ConversionEngine struct {
	source services.SourceCatalog
	search services.SearchCatalog
	writer services.PlaylistWriter
	tokens services.TokenProvider
	budget *quota.Budget

	backoffBase time.Duration
}

// NewConversionEngine creates an engine from its collaborators. The budget
// meters the destination write API only; search goes through the keyed
// read path.
func NewConversionEngine(
	source services.SourceCatalog,
	search services.SearchCatalog,
	writer services.PlaylistWriter,
	tokens services.TokenProvider,
	budget *quota.Budget,
) *ConversionEngine {
	if budget == nil {
		budget = quota.NewBudget(quota.DefaultDailyLimit)
	}
	return &ConversionEngine{
		source:      source,
		search:      search,
		writer:      writer,
		tokens:      tokens,
		budget:      budget,
		backoffBase: defaultBackoffBase,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ConversionEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run executes a full conversion. The returned result always carries the
// manifest once matching has produced one, including on failed runs.
func (e *ConversionEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, playlistID string, opts EngineOpts) (*ConversionResult, error) {
	if e.source == nil || e.search == nil {
		return nil, fmt.Errorf("%w: catalog services not initialized", shared.ErrInvalidConfig)
	}
	opts.applyDefaults()

	result := &ConversionResult{Phase: PhaseFetching}

	fail := func(err error) (*ConversionResult, error) {
		result.Phase = PhaseFailed
		if result.Manifest != nil {
			result.Summary = Summarize(result.Manifest, result.Outcomes)
		}
		e.sendProgress(progress, failedUpdate(err))
		return result, err
	}

	// Fetching
	e.sendProgress(progress, fetchingUpdate())

	info, err := e.source.PlaylistInfo(ctx, playlistID)
	if err != nil {
		return fail(fmt.Errorf("failed to fetch playlist: %w", err))
	}

	tracks, err := e.source.FetchTracks(ctx, playlistID)
	if err != nil {
		return fail(fmt.Errorf("failed to fetch tracks: %w", err))
	}

	e.sendProgress(progress, playlistFoundUpdate(info, len(tracks)))

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// Matching
	result.Phase = PhaseMatching
	e.sendProgress(progress, matchingUpdate(0, len(tracks), nil))

	results := e.matchTracks(ctx, progress, tracks, opts)

	result.Manifest = &Manifest{
		RunID:               shared.GenerateID(),
		Playlist:            info,
		Results:             results,
		AcceptanceThreshold: opts.Threshold,
		TotalSourceTracks:   len(tracks),
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	if opts.MatchOnly || len(result.Manifest.MatchedIndexes()) == 0 {
		result.Phase = PhaseComplete
		result.Summary = Summarize(result.Manifest, nil)
		e.sendProgress(progress, completeUpdate(nil, result.Summary))
		return result, nil
	}

	if err := e.authorizeAndPublish(ctx, progress, result, opts); err != nil {
		return fail(err)
	}

	result.Phase = PhaseComplete
	result.Summary = Summarize(result.Manifest, result.Outcomes)
	e.sendProgress(progress, completeUpdate(result.Playlist, result.Summary))
	return result, nil
}

// PublishManifest publishes an already-matched manifest, running only the
// authorization and publishing phases. The interactive review flow uses this
// after the user has adjusted the acceptance threshold and confirmed.
func (e *ConversionEngine) PublishManifest(ctx context.Context, progress chan<- ProgressUpdate, manifest *Manifest, opts EngineOpts) (*ConversionResult, error) {
	opts.applyDefaults()

	result := &ConversionResult{Manifest: manifest, Phase: PhaseAwaitingAuthorization}

	if len(manifest.MatchedIndexes()) == 0 {
		result.Phase = PhaseComplete
		result.Summary = Summarize(manifest, nil)
		e.sendProgress(progress, completeUpdate(nil, result.Summary))
		return result, nil
	}

	if err := e.authorizeAndPublish(ctx, progress, result, opts); err != nil {
		result.Phase = PhaseFailed
		result.Summary = Summarize(manifest, result.Outcomes)
		e.sendProgress(progress, failedUpdate(err))
		return result, err
	}

	result.Phase = PhaseComplete
	result.Summary = Summarize(manifest, result.Outcomes)
	e.sendProgress(progress, completeUpdate(result.Playlist, result.Summary))
	return result, nil
}

// authorizeAndPublish runs the authorization and publishing phases against
// result.Manifest, recording outcomes and the created playlist on result.
func (e *ConversionEngine) authorizeAndPublish(ctx context.Context, progress chan<- ProgressUpdate, result *ConversionResult, opts EngineOpts) error {
	if e.writer == nil || e.tokens == nil {
		return fmt.Errorf("%w: destination writer not initialized", shared.ErrInvalidConfig)
	}
	manifest := result.Manifest

	result.Phase = PhaseAwaitingAuthorization
	e.sendProgress(progress, awaitingAuthorizationUpdate())

	token, err := e.tokens.GetAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("authorization not granted: %w", err)
	}
	if err := e.writer.Authenticate(ctx, token); err != nil {
		return fmt.Errorf("failed to install token: %w", err)
	}

	result.Phase = PhasePublishing
	title := opts.Title
	if title == "" && manifest.Playlist != nil {
		title = manifest.Playlist.Name
	}
	description := opts.Description
	if description == "" && manifest.Playlist != nil {
		description = fmt.Sprintf("Converted from Spotify: %s", manifest.Playlist.Name)
	}

	outcomes, ref, err := e.publish(ctx, progress, manifest, manifest.MatchedIndexes(), title, description, opts.Private)
	result.Outcomes = outcomes
	result.Playlist = ref
	return err
}

// buildQuery forms the free-text search query for one source track.
func buildQuery(t services.SourceTrack) string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Title + " " + t.Artist
}

// matchTracks runs the matching worker pool. Results are written by source
// index so manifest order never depends on query completion order. A failed
// query marks its own slot and the run continues.
func (e *ConversionEngine) matchTracks(ctx context.Context, progress chan<- ProgressUpdate, tracks []services.SourceTrack, opts EngineOpts) []match.Result {
	results := make([]match.Result, len(tracks))
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan int, len(tracks))
	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0

	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				track := tracks[i]

				if err := ctx.Err(); err != nil {
					results[i] = match.QueryFailed(track, err)
					continue
				}
				if err := limiter.Wait(ctx); err != nil {
					results[i] = match.QueryFailed(track, err)
					continue
				}

				candidates, err := e.search.Search(ctx, buildQuery(track), opts.SearchLimit)
				if err != nil {
					results[i] = match.QueryFailed(track, err)
				} else {
					results[i] = match.Select(track, candidates, opts.MinViable, opts.Threshold)
				}

				mu.Lock()
				done++
				step := done
				mu.Unlock()
				e.sendProgress(progress, matchingUpdate(step, len(tracks), &track))
			}
		}()
	}

	for i := range tracks {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// publish creates the destination playlist and inserts matched items in
// manifest order. Every write reserves quota first; a refused reservation
// halts publishing gracefully with the remaining items marked skipped.
func (e *ConversionEngine) publish(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	manifest *Manifest,
	matched []int,
	title, description string,
	private bool,
) ([]PublishOutcome, *services.PlaylistRef, error) {
	outcomes := make([]PublishOutcome, 0, len(matched))

	skipRemaining := func(from int) []PublishOutcome {
		for _, idx := range matched[from:] {
			outcomes = append(outcomes, PublishOutcome{Index: idx, State: PublishSkippedQuota})
		}
		return outcomes
	}

	if err := ctx.Err(); err != nil {
		return outcomes, nil, err
	}

	if !e.budget.Reserve(quota.OpPlaylistInsert) {
		e.sendProgress(progress, quotaHaltUpdate(0, len(matched)))
		return skipRemaining(0), nil, nil
	}

	e.sendProgress(progress, creatingPlaylistUpdate(title))

	var ref *services.PlaylistRef
	err := e.withRetry(ctx, func() error {
		var createErr error
		ref, createErr = e.writer.CreatePlaylist(ctx, title, description, private)
		return createErr
	})
	if err != nil {
		return outcomes, nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	for n, idx := range matched {
		if err := ctx.Err(); err != nil {
			return outcomes, ref, err
		}

		if !e.budget.Reserve(quota.OpPlaylistItemInsert) {
			e.sendProgress(progress, quotaHaltUpdate(n, len(matched)))
			return skipRemaining(n), ref, nil
		}

		r := manifest.Results[idx]
		e.sendProgress(progress, publishingUpdate(n+1, len(matched), r.Track))

		attempts := 0
		err := e.withRetry(ctx, func() error {
			attempts++
			return e.writer.InsertItem(ctx, ref, r.Candidate.VideoID)
		})

		// Publishing is best-effort per item: a non-transient insert
		// failure, auth expiry included, marks its own outcome and the
		// remaining items are still attempted.
		outcome := PublishOutcome{Index: idx, Attempts: attempts}
		if err == nil {
			outcome.State = PublishPublished
		} else {
			outcome.State = PublishFailed
			outcome.Err = err
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, ref, nil
}

// withRetry runs op, retrying transient failures with doubling capped backoff.
func (e *ConversionEngine) withRetry(ctx context.Context, op func() error) error {
	backoff := e.backoffBase
	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if err == nil || !isTransient(err) || attempt >= maxPublishRetries {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// isTransient reports whether a failure is worth retrying.
func isTransient(err error) bool {
	return errors.Is(err, shared.ErrRateLimited) ||
		errors.Is(err, shared.ErrTransient) ||
		errors.Is(err, shared.ErrTimeout)
}
