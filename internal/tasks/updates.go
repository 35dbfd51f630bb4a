package tasks

import (
	"fmt"

	"tuneshift/internal/services"
)

// ProgressUpdate represents a progress event during a conversion run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Current engine phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase enumerates the engine's states. Complete and Failed are terminal.
type Phase int

const (
	PhaseFetching Phase = iota
	PhaseMatching
	PhaseAwaitingAuthorization
	PhasePublishing
	PhaseComplete
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseFetching:
		return "fetching"
	case PhaseMatching:
		return "matching"
	case PhaseAwaitingAuthorization:
		return "awaiting_authorization"
	case PhasePublishing:
		return "publishing"
	case PhaseComplete:
		return "complete"
	case PhaseFailed:
		return "failed"
	default:
		return ""
	}
}

// Terminal reports whether the phase ends a run.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

func fetchingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFetching,
		Step:    1,
		Total:   1,
		Message: "Fetching source playlist from Spotify...",
	}
}

func playlistFoundUpdate(pl *services.SourcePlaylist, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFetching,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", pl.Name, trackCount),
		Data:    pl,
	}
}

func matchingUpdate(step, total int, track *services.SourceTrack) ProgressUpdate {
	if track == nil {
		return ProgressUpdate{
			Phase:   PhaseMatching,
			Step:    step,
			Total:   total,
			Message: "Searching for tracks on YouTube...",
		}
	}
	return ProgressUpdate{
		Phase:   PhaseMatching,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, track.Artist, track.Title),
	}
}

func awaitingAuthorizationUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseAwaitingAuthorization,
		Step:    1,
		Total:   1,
		Message: "Waiting for YouTube authorization...",
	}
}

func creatingPlaylistUpdate(title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhasePublishing,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist: %s", title),
	}
}

func publishingUpdate(step, total int, track services.SourceTrack) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhasePublishing,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding: %s - %s", step, total, track.Artist, track.Title),
	}
}

func quotaHaltUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhasePublishing,
		Step:    step,
		Total:   total,
		Message: "Quota budget exhausted, stopping inserts",
	}
}

func completeUpdate(pl *services.PlaylistRef, summary Summary) ProgressUpdate {
	msg := "Conversion complete"
	if pl != nil {
		msg = fmt.Sprintf("Conversion complete: %s (%d added)", pl.URL, summary.Published)
	}
	return ProgressUpdate{
		Phase:   PhaseComplete,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    summary,
	}
}

func failedUpdate(err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFailed,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Conversion failed: %v", err),
	}
}
