package match

import "tuneshift/internal/services"

// Default acceptance thresholds. MinViable is the floor below which a best
// candidate is treated as no candidate at all.
const (
	DefaultThreshold = 0.7
	DefaultMinViable = 0.2
)

// Status classifies the outcome of matching one source track.
type Status int

const (
	StatusMatched Status = iota
	StatusLowConfidence
	StatusNoCandidate
	StatusQueryFailed
)

func (s Status) String() string {
	switch s {
	case StatusMatched:
		return "matched"
	case StatusLowConfidence:
		return "low_confidence"
	case StatusNoCandidate:
		return "no_candidate"
	case StatusQueryFailed:
		return "query_failed"
	default:
		return "unknown"
	}
}

// Result records the matching outcome for one source track.
type Result struct {
	Track      services.SourceTrack
	Candidate  *services.Candidate
	Confidence float64
	Status     Status
	Err        error
}

// Select scores every candidate and picks the best for the track. Ties break
// toward candidates with a known duration, then toward earlier search rank.
// A best score below minViable yields StatusNoCandidate; below threshold,
// StatusLowConfidence.
func Select(track services.SourceTrack, candidates []services.Candidate, minViable, threshold float64) Result {
	result := Result{Track: track, Status: StatusNoCandidate}
	if len(candidates) == 0 {
		return result
	}

	bestIdx := -1
	bestScore := 0.0
	for i, c := range candidates {
		score := Score(track, c)
		if bestIdx < 0 || score > bestScore {
			bestIdx, bestScore = i, score
			continue
		}
		if score == bestScore && candidates[bestIdx].Duration <= 0 && c.Duration > 0 {
			bestIdx = i
		}
	}

	if bestScore < minViable {
		return result
	}

	best := candidates[bestIdx]
	result.Candidate = &best
	result.Confidence = bestScore
	result.Status = Classify(bestScore, threshold)
	return result
}

// Classify maps a viable confidence to Matched or LowConfidence against the
// acceptance threshold.
func Classify(confidence, threshold float64) Status {
	if confidence >= threshold {
		return StatusMatched
	}
	return StatusLowConfidence
}

// Reclassify re-evaluates a result against a new acceptance threshold.
// Results without a retained candidate are unchanged.
func Reclassify(r Result, threshold float64) Result {
	if r.Candidate == nil || r.Status == StatusQueryFailed {
		return r
	}
	r.Status = Classify(r.Confidence, threshold)
	return r
}

// QueryFailed builds the result for a track whose search call errored.
func QueryFailed(track services.SourceTrack, err error) Result {
	return Result{Track: track, Status: StatusQueryFailed, Err: err}
}
