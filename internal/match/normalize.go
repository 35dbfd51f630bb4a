package match

import (
	"regexp"
	"strings"
)

var (
	bracketPattern = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	featPattern    = regexp.MustCompile(`\b(?:feat|ft|featuring)\b\.?\s+.*$`)
	punctPattern   = regexp.MustCompile(`[^a-z0-9\s]`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// noiseTokens are presentation words that carry no identity signal.
var noiseTokens = map[string]bool{
	"official":   true,
	"audio":      true,
	"video":      true,
	"lyrics":     true,
	"lyric":      true,
	"hd":         true,
	"4k":         true,
	"mv":         true,
	"visualizer": true,
	"remastered": true,
}

// diacriticFolds maps common accented Latin runes to their ASCII base.
var diacriticFolds = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o', 'ø': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ý': 'y', 'ÿ': 'y',
	'ñ': 'n', 'ç': 'c', 'ß': 's',
}

// Normalize canonicalizes a title or artist string for comparison: lowercase,
// diacritics folded to ASCII, bracketed annotations and featuring credits
// stripped, noise tokens dropped, punctuation removed, whitespace collapsed.
// Normalize is idempotent.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = foldDiacritics(s)
	s = bracketPattern.ReplaceAllString(s, " ")
	s = featPattern.ReplaceAllString(s, " ")
	s = punctPattern.ReplaceAllString(s, " ")

	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if !noiseTokens[f] {
			kept = append(kept, f)
		}
	}

	return spacePattern.ReplaceAllString(strings.TrimSpace(strings.Join(kept, " ")), " ")
}

func foldDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if folded, ok := diacriticFolds[r]; ok {
			b.WriteRune(folded)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TrackKey builds a normalized "title|artist" key for deduplication maps.
func TrackKey(title, artist string) string {
	return Normalize(title) + "|" + Normalize(artist)
}
