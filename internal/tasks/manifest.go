package tasks

import (
	"tuneshift/internal/match"
	"tuneshift/internal/services"
)

// PublishState records what happened to one matched track during publishing.
type PublishState int

const (
	PublishNotAttempted PublishState = iota
	PublishPublished
	PublishFailed
	PublishSkippedQuota
)

func (s PublishState) String() string {
	switch s {
	case PublishNotAttempted:
		return "not_attempted"
	case PublishPublished:
		return "published"
	case PublishFailed:
		return "failed"
	case PublishSkippedQuota:
		return "skipped_quota"
	default:
		return "unknown"
	}
}

// PublishOutcome pairs a manifest index with its publishing result.
type PublishOutcome struct {
	Index    int // position in Manifest.Results
	State    PublishState
	Attempts int
	Err      error
}

// Manifest is the per-track record of a conversion run, ordered by source
// playlist position regardless of how matching queries completed.
type Manifest struct {
	RunID               string // assigned once per conversion run
	Playlist            *services.SourcePlaylist
	Results             []match.Result
	AcceptanceThreshold float64
	TotalSourceTracks   int
}

// MatchedIndexes returns the manifest positions with status matched, in order.
func (m *Manifest) MatchedIndexes() []int {
	var idx []int
	for i, r := range m.Results {
		if r.Status == match.StatusMatched {
			idx = append(idx, i)
		}
	}
	return idx
}

// Reclassify re-evaluates every retained candidate against a new acceptance
// threshold, returning a copy. Used by the review UI.
func (m *Manifest) Reclassify(threshold float64) *Manifest {
	out := &Manifest{
		RunID:               m.RunID,
		Playlist:            m.Playlist,
		Results:             make([]match.Result, len(m.Results)),
		AcceptanceThreshold: threshold,
		TotalSourceTracks:   m.TotalSourceTracks,
	}
	for i, r := range m.Results {
		out.Results[i] = match.Reclassify(r, threshold)
	}
	return out
}

// Summary aggregates matching and publishing counts for one run.
type Summary struct {
	Matched         int
	LowConfidence   int
	NoCandidate     int
	QueryFailed     int
	Published       int
	FailedPublish   int
	SkippedForQuota int
}

// Summarize computes the summary from a manifest and its publish outcomes.
func Summarize(m *Manifest, outcomes []PublishOutcome) Summary {
	var s Summary
	for _, r := range m.Results {
		switch r.Status {
		case match.StatusMatched:
			s.Matched++
		case match.StatusLowConfidence:
			s.LowConfidence++
		case match.StatusNoCandidate:
			s.NoCandidate++
		case match.StatusQueryFailed:
			s.QueryFailed++
		}
	}
	for _, o := range outcomes {
		switch o.State {
		case PublishPublished:
			s.Published++
		case PublishFailed:
			s.FailedPublish++
		case PublishSkippedQuota:
			s.SkippedForQuota++
		}
	}
	return s
}

// ConversionResult contains everything a run produced. The manifest is
// populated as soon as matching finishes and survives later failures.
type ConversionResult struct {
	Manifest *Manifest
	Playlist *services.PlaylistRef // nil unless publishing created one
	Outcomes []PublishOutcome
	Summary  Summary
	Phase    Phase
}
