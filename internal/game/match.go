// internal/game/match.go
//
// Guess matching.
//
// IsMatch tolerates small misspellings of long names with a positional rule:
// both strings are compared index by index, a missing character counts as a
// mismatch, and up to two mismatches are accepted for names longer than five
// characters. This is a Hamming-style check over padded strings, not an edit
// distance; a dropped letter early in the name shifts every later position and
// is penalized accordingly. Short names must match exactly.
//
// NearMiss uses real Levenshtein distance and only decorates wrong-guess
// feedback; it never decides correctness.

package game

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	// exactOnlyMaxLen: names this short (after normalization) accept no typos.
	exactOnlyMaxLen = 5
	maxMismatches   = 2
	nearMissMaxDist = 2
)

// Normalize lower-cases s and drops every character outside [a-z0-9].
func Normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// PositionalMismatches counts index-wise differences between two already
// normalized strings, treating positions past the end of the shorter string
// as mismatches. Counting stops once limit is exceeded (limit < 0: no limit).
func PositionalMismatches(g, t string, limit int) int {
	n := max(len(g), len(t))
	diff := 0
	for i := 0; i < n; i++ {
		if i >= len(g) || i >= len(t) || g[i] != t[i] {
			diff++
			if limit >= 0 && diff > limit {
				return diff
			}
		}
	}
	return diff
}

// IsMatch reports whether guess denotes target.
func IsMatch(guess, target string) bool {
	g, t := Normalize(guess), Normalize(target)
	if g == t {
		return true
	}
	if len(t) <= exactOnlyMaxLen {
		return false
	}
	return PositionalMismatches(g, t, maxMismatches) <= maxMismatches
}

// NearMiss reports whether a rejected guess is within two edits of target.
func NearMiss(guess, target string) bool {
	g, t := Normalize(guess), Normalize(target)
	if g == "" || g == t {
		return false
	}
	return levenshtein.ComputeDistance(g, t) <= nearMissMaxDist
}
