// Package matching links records from different source systems to one
// canonical customer using exact keys and Levenshtein name similarity.
package matching

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Threshold is the similarity a name pair must exceed to count as the same entity.
const Threshold = 0.85

var (
	nonWordPattern    = regexp.MustCompile(`[^\w\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize lowercases, strips non-word characters and collapses whitespace.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = nonWordPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Similarity returns a score in [0,1] comparing two names after
// normalization: 1 for identical (two empty names included), 0 when only
// one side is empty, otherwise
// (maxLen - editDistance) / maxLen.
func Similarity(a, b string) float64 {
	return normalizedSimilarity(Normalize(a), Normalize(b))
}

// IsMatch reports whether two names are similar enough to be the same entity.
func IsMatch(a, b string) bool {
	return Similarity(a, b) > Threshold
}

func normalizedSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	distance := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-distance) / float64(maxLen)
}

// upperBound is the best score two strings of these lengths could reach;
// the edit distance is never smaller than the length difference.
func upperBound(la, lb int) float64 {
	if la == 0 || lb == 0 {
		return 0
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}
