package match

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"tuneshift/internal/services"
)

// Signal weights. When the duration of either side is unknown its weight is
// redistributed proportionally across the title and artist signals.
const (
	titleWeight    = 0.5
	artistWeight   = 0.35
	durationWeight = 0.15
)

// Duration proximity bounds in seconds: full credit within closeSeconds,
// linear falloff to zero at farSeconds.
const (
	closeSeconds = 3
	farSeconds   = 15
)

// Score rates a destination candidate against a source track, returning a
// confidence in [0,1].
func Score(track services.SourceTrack, c services.Candidate) float64 {
	title := Normalize(track.Title)
	artists := normalizedArtists(track)
	candTitle := Normalize(c.Title)
	candChannel := Normalize(c.ChannelTitle)

	ts := titleSimilarity(title, strings.Join(artists, " "), candTitle)
	as := artistPresence(artists, candTitle, candChannel)

	if track.Duration <= 0 || c.Duration <= 0 {
		scale := titleWeight + artistWeight
		return clamp(ts*titleWeight/scale + as*artistWeight/scale)
	}

	ds := durationProximity(track.Duration, c.Duration)
	return clamp(ts*titleWeight + as*artistWeight + ds*durationWeight)
}

// titleSimilarity compares normalized titles by levenshtein ratio. Video
// titles often embed the artist name, so the candidate title is also compared
// with the artist tokens removed and the better of the two ratios wins.
func titleSimilarity(title, artist, candTitle string) float64 {
	if title == "" || candTitle == "" {
		return 0
	}

	best := levenshteinRatio(title, candTitle)
	if artist != "" {
		stripped := removeTokens(candTitle, artist)
		if stripped != "" && stripped != candTitle {
			if r := levenshteinRatio(title, stripped); r > best {
				best = r
			}
		}
	}

	return best
}

func levenshteinRatio(a, b string) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// normalizedArtists returns every credited artist normalized, falling back
// to the joined Artist field when the slice is absent.
func normalizedArtists(track services.SourceTrack) []string {
	names := track.Artists
	if len(names) == 0 && track.Artist != "" {
		names = []string{track.Artist}
	}

	var out []string
	for _, name := range names {
		if n := Normalize(name); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// artistPresence scores the fraction of credited artists found in the
// candidate title or channel. A track crediting two artists where only one
// appears earns half credit.
func artistPresence(artists []string, candTitle, candChannel string) float64 {
	if len(artists) == 0 {
		return 0
	}

	haystack := candTitle + " " + candChannel
	var total float64
	for _, artist := range artists {
		total += singleArtistPresence(artist, haystack)
	}

	return total / float64(len(artists))
}

// singleArtistPresence gives full credit when the whole name appears in the
// haystack, otherwise the fraction of its tokens found.
func singleArtistPresence(artist, haystack string) float64 {
	if strings.Contains(haystack, artist) {
		return 1
	}

	tokens := strings.Fields(artist)
	if len(tokens) == 0 {
		return 0
	}

	found := 0
	for _, tok := range tokens {
		if containsToken(haystack, tok) {
			found++
		}
	}

	return float64(found) / float64(len(tokens))
}

func durationProximity(a, b int) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= closeSeconds:
		return 1
	case diff >= farSeconds:
		return 0
	default:
		return float64(farSeconds-diff) / float64(farSeconds-closeSeconds)
	}
}

// removeTokens drops every token of remove from s, preserving token order.
func removeTokens(s, remove string) string {
	drop := map[string]bool{}
	for _, tok := range strings.Fields(remove) {
		drop[tok] = true
	}

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if !drop[f] {
			kept = append(kept, f)
		}
	}

	return strings.Join(kept, " ")
}

func containsToken(s, tok string) bool {
	for _, f := range strings.Fields(s) {
		if f == tok {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
