// package formatter exports conversion manifests to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"tuneshift/internal/match"
	"tuneshift/internal/repositories"
	"tuneshift/internal/services"
	"tuneshift/internal/shared"
	"tuneshift/internal/tasks"
)

// ManifestToCSV renders a manifest with one row per source track, matched or
// not, mirroring the manifest order.
func ManifestToCSV(m *tasks.Manifest) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{
		"Position", "Source Title", "Source Artist", "Source Duration",
		"Matched Video ID", "Matched Title", "Matched Channel", "Matched Duration",
		"Confidence", "Status",
	}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, r := range m.Results {
		record := []string{
			strconv.Itoa(i + 1),
			r.Track.Title,
			r.Track.Artist,
			strconv.Itoa(r.Track.Duration),
			"", "", "", "",
			fmt.Sprintf("%.3f", r.Confidence),
			r.Status.String(),
		}
		if r.Candidate != nil {
			record[4] = r.Candidate.VideoID
			record[5] = r.Candidate.Title
			record[6] = r.Candidate.ChannelTitle
			record[7] = strconv.Itoa(r.Candidate.Duration)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ManifestToMarkdown renders a readable report with a summary header and a
// table of per-track outcomes.
func ManifestToMarkdown(m *tasks.Manifest, summary tasks.Summary) ([]byte, error) {
	var buf bytes.Buffer

	name := "Conversion Report"
	if m.Playlist != nil {
		name = m.Playlist.Name
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", name))

	if m.Playlist != nil && m.Playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", m.Playlist.Description))
	}

	if m.RunID != "" {
		buf.WriteString(fmt.Sprintf("**Run**: %s\n", m.RunID))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", m.TotalSourceTracks))
	buf.WriteString(fmt.Sprintf("**Acceptance threshold**: %.2f\n", m.AcceptanceThreshold))
	buf.WriteString(fmt.Sprintf("**Matched**: %d | **Low confidence**: %d | **No candidate**: %d | **Query failed**: %d\n\n",
		summary.Matched, summary.LowConfidence, summary.NoCandidate, summary.QueryFailed))

	if summary.Published+summary.FailedPublish+summary.SkippedForQuota > 0 {
		buf.WriteString(fmt.Sprintf("**Published**: %d | **Failed**: %d | **Skipped (quota)**: %d\n\n",
			summary.Published, summary.FailedPublish, summary.SkippedForQuota))
	}

	buf.WriteString("| # | Source | Match | Confidence | Status |\n")
	buf.WriteString("|---|--------|-------|------------|--------|\n")
	for i, r := range m.Results {
		source := fmt.Sprintf("%s - %s [%s]", r.Track.Artist, r.Track.Title, shared.FormatDuration(r.Track.Duration))
		matched := "-"
		if r.Candidate != nil {
			matched = fmt.Sprintf("%s (%s) [%s]", r.Candidate.Title, r.Candidate.ChannelTitle, shared.FormatDuration(r.Candidate.Duration))
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %.2f | %s |\n", i+1, source, matched, r.Confidence, r.Status))
	}

	return buf.Bytes(), nil
}

// ManifestToText renders a compact plain text listing.
func ManifestToText(m *tasks.Manifest) ([]byte, error) {
	var buf bytes.Buffer

	if m.Playlist != nil {
		buf.WriteString(fmt.Sprintf("Playlist: %s\n", m.Playlist.Name))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d (threshold %.2f)\n\n", m.TotalSourceTracks, m.AcceptanceThreshold))

	for i, r := range m.Results {
		marker := " "
		switch r.Status {
		case match.StatusMatched:
			marker = "+"
		case match.StatusLowConfidence:
			marker = "?"
		case match.StatusNoCandidate:
			marker = "-"
		case match.StatusQueryFailed:
			marker = "!"
		}

		line := fmt.Sprintf("%s %d. %s - %s", marker, i+1, r.Track.Artist, r.Track.Title)
		if r.Candidate != nil {
			line += fmt.Sprintf(" -> %s (%.2f)", r.Candidate.VideoID, r.Confidence)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// SaveCover writes a playlist's cover image to path, going through the
// thumbnail cache so repeat exports skip the download. An empty path
// defaults to cover_<playlist id>.jpg. Returns the path written.
func SaveCover(ctx context.Context, cache *repositories.ThumbnailCache, playlist *services.SourcePlaylist, path string) (string, error) {
	if playlist == nil || playlist.ImageURL == "" {
		return "", fmt.Errorf("%w: playlist has no cover image", shared.ErrInvalidArgument)
	}

	if path == "" {
		path = fmt.Sprintf("cover_%s.jpg", playlist.ID)
	}

	data, err := cache.Fetch(ctx, "cover:"+playlist.ID, playlist.ImageURL)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write cover image: %w", err)
	}

	return path, nil
}

// SummaryJSON renders the run summary as pretty JSON for CLI output.
func SummaryJSON(summary tasks.Summary) ([]byte, error) {
	return shared.MarshalJSON(summary, true)
}

// WriteManifest writes the manifest in the named format (csv, markdown, txt)
// and returns the path written.
func WriteManifest(m *tasks.Manifest, summary tasks.Summary, format, path string) (string, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case "markdown", "md":
		if path == "" {
			path = "conversion_report.md"
		}
		data, err = ManifestToMarkdown(m, summary)
	case "txt", "text":
		if path == "" {
			path = "conversion_report.txt"
		}
		data, err = ManifestToText(m)
	case "csv", "":
		if path == "" {
			path = "conversion_matches.csv"
		}
		data, err = ManifestToCSV(m)
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest file: %w", err)
	}

	return path, nil
}
