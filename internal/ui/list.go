package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"tuneshift/internal/match"
	"tuneshift/internal/shared"
)

var _ list.Item = resultItem{}

// resultItem wraps a [match.Result] to implement [list.Item].
type resultItem struct {
	position int
	result   match.Result
}

func (i resultItem) FilterValue() string {
	return i.result.Track.Title + " " + i.result.Track.Artist
}

func (i resultItem) Title() string {
	marker := "·"
	switch i.result.Status {
	case match.StatusMatched:
		marker = "✓"
	case match.StatusLowConfidence:
		marker = "?"
	case match.StatusNoCandidate:
		marker = "✗"
	case match.StatusQueryFailed:
		marker = "!"
	}
	return fmt.Sprintf("%s %d. %s - %s", marker, i.position, i.result.Track.Artist, i.result.Track.Title)
}

func (i resultItem) Description() string {
	if i.result.Candidate == nil {
		if i.result.Status == match.StatusQueryFailed {
			return "search failed"
		}
		return "no viable candidate"
	}
	return fmt.Sprintf("%.2f • %s (%s) [%s]",
		i.result.Confidence,
		i.result.Candidate.Title,
		i.result.Candidate.ChannelTitle,
		shared.FormatDuration(i.result.Candidate.Duration),
	)
}
