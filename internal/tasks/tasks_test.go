package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tuneshift/internal/match"
	"tuneshift/internal/quota"
	"tuneshift/internal/services"
	"tuneshift/internal/shared"
	mocks "tuneshift/internal/testing"
)

func sourceTracks(n int) []services.SourceTrack {
	tracks := make([]services.SourceTrack, n)
	for i := range tracks {
		tracks[i] = services.SourceTrack{
			ID:       fmt.Sprintf("t%d", i),
			Title:    fmt.Sprintf("Song %d", i),
			Artist:   fmt.Sprintf("Artist %d", i),
			Duration: 180 + i,
		}
	}
	return tracks
}

// perfectResults maps each track's query to a single exact candidate.
func perfectResults(tracks []services.SourceTrack) map[string][]services.Candidate {
	results := make(map[string][]services.Candidate, len(tracks))
	for i, tr := range tracks {
		results[buildQuery(tr)] = []services.Candidate{{
			VideoID:      fmt.Sprintf("v%d", i),
			Title:        tr.Title,
			ChannelTitle: tr.Artist,
			Duration:     tr.Duration,
		}}
	}
	return results
}

func newTestEngine(source *mocks.MockSourceCatalog, search *mocks.MockSearchCatalog, writer *mocks.MockPlaylistWriter, tokens *mocks.MockTokenProvider, budget *quota.Budget) *ConversionEngine {
	e := NewConversionEngine(source, search, writer, tokens, budget)
	e.backoffBase = time.Millisecond
	return e
}

func fastOpts() EngineOpts {
	return EngineOpts{NumWorkers: 4, RateLimit: 10000}
}

func TestConversionEngineRun(t *testing.T) {
	t.Run("full run publishes matched tracks in order", func(t *testing.T) {
		tracks := sourceTracks(5)
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		search := &mocks.MockSearchCatalog{Results: perfectResults(tracks)}
		writer := &mocks.MockPlaylistWriter{}
		tokens := &mocks.MockTokenProvider{}

		engine := newTestEngine(source, search, writer, tokens, nil)
		result, err := engine.Run(context.Background(), nil, "PL123", fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Phase != PhaseComplete {
			t.Errorf("expected complete phase, got %s", result.Phase)
		}
		if result.Playlist == nil {
			t.Fatal("expected a created playlist")
		}
		if writer.Token == nil || writer.Token.AccessToken != "mock-token" {
			t.Error("expected writer to be authenticated with the provider token")
		}

		if result.Summary.Matched != 5 || result.Summary.Published != 5 {
			t.Errorf("expected 5 matched and published, got %+v", result.Summary)
		}

		if result.Manifest.RunID == "" {
			t.Error("expected the manifest to carry a run ID")
		}

		for i, vid := range writer.Inserted {
			if want := fmt.Sprintf("v%d", i); vid != want {
				t.Errorf("insert %d: expected %s, got %s", i, want, vid)
			}
		}
	})

	t.Run("manifest order matches source order under concurrency", func(t *testing.T) {
		tracks := sourceTracks(40)
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		search := &mocks.MockSearchCatalog{Results: perfectResults(tracks)}

		engine := newTestEngine(source, search, nil, nil, nil)
		opts := fastOpts()
		opts.NumWorkers = 8
		opts.MatchOnly = true

		result, err := engine.Run(context.Background(), nil, "PL123", opts)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(result.Manifest.Results) != len(tracks) {
			t.Fatalf("expected %d results, got %d", len(tracks), len(result.Manifest.Results))
		}
		for i, r := range result.Manifest.Results {
			if r.Track.ID != tracks[i].ID {
				t.Fatalf("manifest position %d holds track %s, want %s", i, r.Track.ID, tracks[i].ID)
			}
			if r.Candidate == nil || r.Candidate.VideoID != fmt.Sprintf("v%d", i) {
				t.Fatalf("manifest position %d has wrong candidate", i)
			}
		}
	})

	t.Run("failed query marks its slot and run continues", func(t *testing.T) {
		tracks := sourceTracks(3)
		search := &mocks.MockSearchCatalog{
			Results: perfectResults(tracks),
			Errs:    map[string]error{buildQuery(tracks[1]): fmt.Errorf("%w: search blew up", shared.ErrTransient)},
		}
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		writer := &mocks.MockPlaylistWriter{}
		tokens := &mocks.MockTokenProvider{}

		engine := newTestEngine(source, search, writer, tokens, nil)
		result, err := engine.Run(context.Background(), nil, "PL123", fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Manifest.Results[1].Status != match.StatusQueryFailed {
			t.Errorf("expected query_failed at position 1, got %s", result.Manifest.Results[1].Status)
		}
		if result.Manifest.Results[1].Err == nil {
			t.Error("expected the query error to be recorded")
		}
		if result.Summary.Matched != 2 || result.Summary.QueryFailed != 1 || result.Summary.Published != 2 {
			t.Errorf("unexpected summary: %+v", result.Summary)
		}
	})

	t.Run("transient insert failures are retried to success", func(t *testing.T) {
		tracks := sourceTracks(2)
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		search := &mocks.MockSearchCatalog{Results: perfectResults(tracks)}
		writer := &mocks.MockPlaylistWriter{
			InsertErrs: map[string][]error{
				"v0": {
					fmt.Errorf("%w: 429", shared.ErrRateLimited),
					fmt.Errorf("%w: 503", shared.ErrTransient),
				},
			},
		}
		tokens := &mocks.MockTokenProvider{}

		engine := newTestEngine(source, search, writer, tokens, nil)
		result, err := engine.Run(context.Background(), nil, "PL123", fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Summary.Published != 2 {
			t.Errorf("expected both items published, got %+v", result.Summary)
		}
		if len(writer.Inserted) != 2 || writer.Inserted[0] != "v0" || writer.Inserted[1] != "v1" {
			t.Errorf("retries must preserve item order, got %v", writer.Inserted)
		}
		if result.Outcomes[0].Attempts != 3 {
			t.Errorf("expected 3 attempts for v0, got %d", result.Outcomes[0].Attempts)
		}
	})

	t.Run("non transient insert failure is recorded per item", func(t *testing.T) {
		tracks := sourceTracks(3)
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		search := &mocks.MockSearchCatalog{Results: perfectResults(tracks)}
		writer := &mocks.MockPlaylistWriter{
			InsertErrs: map[string][]error{
				"v1": {fmt.Errorf("%w: video gone", shared.ErrInvalidItem)},
			},
		}
		tokens := &mocks.MockTokenProvider{}

		engine := newTestEngine(source, search, writer, tokens, nil)
		result, err := engine.Run(context.Background(), nil, "PL123", fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Summary.Published != 2 || result.Summary.FailedPublish != 1 {
			t.Errorf("unexpected summary: %+v", result.Summary)
		}
		if !errors.Is(result.Outcomes[1].Err, shared.ErrInvalidItem) {
			t.Errorf("expected invalid item error recorded, got %v", result.Outcomes[1].Err)
		}
	})

	t.Run("expired token on one insert does not abort the rest", func(t *testing.T) {
		tracks := sourceTracks(3)
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		search := &mocks.MockSearchCatalog{Results: perfectResults(tracks)}
		writer := &mocks.MockPlaylistWriter{
			InsertErrs: map[string][]error{
				"v0": {fmt.Errorf("%w: token revoked", shared.ErrAuthExpired)},
			},
		}
		tokens := &mocks.MockTokenProvider{}

		engine := newTestEngine(source, search, writer, tokens, nil)
		result, err := engine.Run(context.Background(), nil, "PL123", fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Phase != PhaseComplete {
			t.Errorf("expected complete phase, got %s", result.Phase)
		}
		if len(result.Outcomes) != 3 {
			t.Fatalf("expected an outcome per matched item, got %d", len(result.Outcomes))
		}
		if !errors.Is(result.Outcomes[0].Err, shared.ErrAuthExpired) {
			t.Errorf("expected auth error recorded on item 0, got %v", result.Outcomes[0].Err)
		}
		if result.Outcomes[0].Attempts != 1 {
			t.Errorf("auth expiry must not be retried, got %d attempts", result.Outcomes[0].Attempts)
		}
		if result.Summary.Published != 2 || result.Summary.FailedPublish != 1 {
			t.Errorf("unexpected summary: %+v", result.Summary)
		}
		if len(writer.Inserted) != 2 || writer.Inserted[0] != "v1" || writer.Inserted[1] != "v2" {
			t.Errorf("remaining items must still be inserted in order, got %v", writer.Inserted)
		}
	})

	t.Run("quota exhaustion mid publish halts gracefully", func(t *testing.T) {
		tracks := sourceTracks(5)
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		search := &mocks.MockSearchCatalog{Results: perfectResults(tracks)}
		writer := &mocks.MockPlaylistWriter{}
		tokens := &mocks.MockTokenProvider{}

		// 50 for the playlist, then room for exactly 2 of 5 inserts.
		budget := quota.NewBudget(150)
		engine := newTestEngine(source, search, writer, tokens, budget)

		result, err := engine.Run(context.Background(), nil, "PL123", fastOpts())
		if err != nil {
			t.Fatalf("quota exhaustion is not a run failure, got %v", err)
		}

		if result.Phase != PhaseComplete {
			t.Errorf("expected complete phase, got %s", result.Phase)
		}
		if result.Summary.Published != 2 || result.Summary.SkippedForQuota != 3 {
			t.Errorf("expected 2 published and 3 skipped, got %+v", result.Summary)
		}
		if len(writer.Inserted) != 2 {
			t.Errorf("expected exactly 2 inserts, got %d", len(writer.Inserted))
		}
	})

	t.Run("no budget for playlist creation skips everything", func(t *testing.T) {
		tracks := sourceTracks(2)
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		search := &mocks.MockSearchCatalog{Results: perfectResults(tracks)}
		writer := &mocks.MockPlaylistWriter{}
		tokens := &mocks.MockTokenProvider{}

		budget := quota.NewBudget(10)
		engine := newTestEngine(source, search, writer, tokens, budget)

		result, err := engine.Run(context.Background(), nil, "PL123", fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Playlist != nil {
			t.Error("expected no playlist to be created")
		}
		if result.Summary.SkippedForQuota != 2 {
			t.Errorf("expected all items skipped, got %+v", result.Summary)
		}
	})

	t.Run("authorization denial fails the run but keeps the manifest", func(t *testing.T) {
		tracks := sourceTracks(3)
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		search := &mocks.MockSearchCatalog{Results: perfectResults(tracks)}
		writer := &mocks.MockPlaylistWriter{}
		tokens := &mocks.MockTokenProvider{Err: shared.ErrConsentDenied}

		engine := newTestEngine(source, search, writer, tokens, nil)
		result, err := engine.Run(context.Background(), nil, "PL123", fastOpts())
		if !errors.Is(err, shared.ErrConsentDenied) {
			t.Fatalf("expected consent denied error, got %v", err)
		}

		if result.Phase != PhaseFailed {
			t.Errorf("expected failed phase, got %s", result.Phase)
		}
		if result.Manifest == nil || len(result.Manifest.Results) != 3 {
			t.Fatal("manifest must survive authorization failure")
		}
		if result.Summary.Matched != 3 {
			t.Errorf("expected matching summary preserved, got %+v", result.Summary)
		}
		if len(writer.Created) != 0 {
			t.Error("no playlist should be created without authorization")
		}
	})

	t.Run("match only stops before authorization", func(t *testing.T) {
		tracks := sourceTracks(2)
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		search := &mocks.MockSearchCatalog{Results: perfectResults(tracks)}

		engine := newTestEngine(source, search, nil, nil, nil)
		opts := fastOpts()
		opts.MatchOnly = true

		result, err := engine.Run(context.Background(), nil, "PL123", opts)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.Phase != PhaseComplete {
			t.Errorf("expected complete phase, got %s", result.Phase)
		}
		if result.Playlist != nil {
			t.Error("match-only runs must not create playlists")
		}
	})

	t.Run("zero matches completes without publishing", func(t *testing.T) {
		tracks := sourceTracks(2)
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		search := &mocks.MockSearchCatalog{Results: map[string][]services.Candidate{}}
		writer := &mocks.MockPlaylistWriter{}
		tokens := &mocks.MockTokenProvider{}

		engine := newTestEngine(source, search, writer, tokens, nil)
		result, err := engine.Run(context.Background(), nil, "PL123", fastOpts())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Summary.NoCandidate != 2 {
			t.Errorf("expected 2 no_candidate, got %+v", result.Summary)
		}
		if len(writer.Created) != 0 {
			t.Error("empty match set must not create a playlist")
		}
	})

	t.Run("source fetch failure fails the run", func(t *testing.T) {
		source := &mocks.MockSourceCatalog{InfoErr: shared.ErrPlaylistNotFound}
		engine := newTestEngine(source, &mocks.MockSearchCatalog{}, nil, nil, nil)

		result, err := engine.Run(context.Background(), nil, "missing", fastOpts())
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Fatalf("expected playlist not found, got %v", err)
		}
		if result.Phase != PhaseFailed {
			t.Errorf("expected failed phase, got %s", result.Phase)
		}
	})

	t.Run("cancellation before publishing fails with manifest", func(t *testing.T) {
		tracks := sourceTracks(2)
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		search := &mocks.MockSearchCatalog{Results: perfectResults(tracks)}
		writer := &mocks.MockPlaylistWriter{}
		tokens := &mocks.MockTokenProvider{Block: true}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		engine := newTestEngine(source, search, writer, tokens, nil)
		result, err := engine.Run(ctx, nil, "PL123", fastOpts())
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context cancellation, got %v", err)
		}
		if result.Manifest == nil {
			t.Fatal("manifest must survive cancellation during authorization")
		}
	})

	t.Run("progress updates never block", func(t *testing.T) {
		tracks := sourceTracks(10)
		source := &mocks.MockSourceCatalog{Tracks: tracks}
		search := &mocks.MockSearchCatalog{Results: perfectResults(tracks)}
		writer := &mocks.MockPlaylistWriter{}
		tokens := &mocks.MockTokenProvider{}

		// Unbuffered channel with no reader: sends must be dropped, not block.
		progress := make(chan ProgressUpdate)

		engine := newTestEngine(source, search, writer, tokens, nil)
		done := make(chan struct{})
		go func() {
			defer close(done)
			engine.Run(context.Background(), progress, "PL123", fastOpts())
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("run blocked on progress channel")
		}
	})
}

func TestPublishManifest(t *testing.T) {
	reviewedManifest := func() *Manifest {
		tracks := sourceTracks(3)
		results := make([]match.Result, len(tracks))
		for i, tr := range tracks {
			c := services.Candidate{VideoID: fmt.Sprintf("v%d", i), Title: tr.Title, ChannelTitle: tr.Artist, Duration: tr.Duration}
			results[i] = match.Result{Track: tr, Candidate: &c, Confidence: 0.95, Status: match.StatusMatched}
		}
		results[1].Confidence = 0.5
		results[1].Status = match.StatusLowConfidence
		return &Manifest{
			Playlist:            &services.SourcePlaylist{ID: "p1", Name: "Reviewed Mix"},
			Results:             results,
			AcceptanceThreshold: 0.7,
			TotalSourceTracks:   len(tracks),
		}
	}

	t.Run("publishes only accepted tracks", func(t *testing.T) {
		writer := &mocks.MockPlaylistWriter{}
		engine := newTestEngine(nil, nil, writer, &mocks.MockTokenProvider{}, nil)

		result, err := engine.PublishManifest(context.Background(), nil, reviewedManifest(), fastOpts())
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.Phase != PhaseComplete {
			t.Errorf("expected complete phase, got %s", result.Phase)
		}
		if result.Playlist == nil {
			t.Fatal("expected a created playlist")
		}
		if len(writer.Inserted) != 2 {
			t.Fatalf("expected 2 inserted items, got %d", len(writer.Inserted))
		}
		if result.Summary.Published != 2 || result.Summary.LowConfidence != 1 {
			t.Errorf("unexpected summary: %+v", result.Summary)
		}
	})

	t.Run("no accepted tracks completes without a playlist", func(t *testing.T) {
		m := reviewedManifest().Reclassify(0.99)
		writer := &mocks.MockPlaylistWriter{}
		engine := newTestEngine(nil, nil, writer, &mocks.MockTokenProvider{}, nil)

		result, err := engine.PublishManifest(context.Background(), nil, m, fastOpts())
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.Playlist != nil || len(writer.Created) != 0 {
			t.Error("expected no playlist creation with nothing accepted")
		}
	})
}

func TestManifestReclassify(t *testing.T) {
	tracks := sourceTracks(1)
	c := services.Candidate{VideoID: "v0", Title: tracks[0].Title, ChannelTitle: tracks[0].Artist, Duration: tracks[0].Duration}
	m := &Manifest{
		Results: []match.Result{
			{Track: tracks[0], Candidate: &c, Confidence: 0.75, Status: match.StatusMatched},
		},
		AcceptanceThreshold: 0.7,
		TotalSourceTracks:   1,
	}

	raised := m.Reclassify(0.8)
	if raised.Results[0].Status != match.StatusLowConfidence {
		t.Errorf("expected low_confidence after raising threshold, got %s", raised.Results[0].Status)
	}
	if m.Results[0].Status != match.StatusMatched {
		t.Error("reclassify must not mutate the original manifest")
	}
	if raised.AcceptanceThreshold != 0.8 {
		t.Errorf("expected threshold 0.8, got %v", raised.AcceptanceThreshold)
	}
}
