// Package match implements the course and program matching engine: program
// set overlap, close-match detection over whitespace tokens, and the
// course-level competition scorer and classifier.
//
// All functions are pure computations over in-memory collections. Matching
// always operates on normalized (lower-cased, trimmed) derived forms and
// never mutates caller-owned slices, so a Matcher may be shared freely
// across goroutines.
package match

import (
	"sort"

	"github.com/collegeradar/collegeradar-go/internal/stringutil"
)

// Normalize lower-cases and trims each program name and collapses the
// result into a set. Blank entries are dropped.
func Normalize(programs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(programs))
	for _, p := range programs {
		n := stringutil.NormalizeProgram(p)
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// NormalizeList returns normalized program names in first-occurrence order
// with duplicates and blank entries removed. Close-match detection depends
// on this ordering.
func NormalizeList(programs []string) []string {
	seen := make(map[string]struct{}, len(programs))
	result := make([]string, 0, len(programs))
	for _, p := range programs {
		n := stringutil.NormalizeProgram(p)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}

// OverlapRatio returns the Jaccard index of two normalized program sets.
// An empty set on either side means "no data", not "no overlap", and yields
// a neutral 0.5. The both-empty case hits the same default, so the union is
// never a zero divisor.
func OverlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.5
	}

	intersection := 0
	for item := range a {
		if _, ok := b[item]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// FindExactMatches returns the competitor programs that also appear in the
// home list, case-insensitive and de-duplicated. The result is sorted so
// output is deterministic regardless of input order; as a set it is
// symmetric in its two arguments.
func FindExactMatches(home, competitor []string) []string {
	homeSet := Normalize(home)

	seen := make(map[string]struct{})
	matches := make([]string, 0)
	for _, p := range competitor {
		n := stringutil.NormalizeProgram(p)
		if n == "" {
			continue
		}
		if _, ok := homeSet[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		matches = append(matches, n)
	}
	sort.Strings(matches)
	return matches
}

// TokenJaccard computes the Jaccard ratio over whitespace-split token sets
// of two normalized program names. Unlike OverlapRatio there is no neutral
// default here: a blank side can never be a close match, so the empty-union
// case returns 0.
func TokenJaccard(a, b string) float64 {
	tokensA := stringutil.Tokenize(a)
	tokensB := stringutil.Tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range tokensA {
		if _, ok := tokensB[tok]; ok {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	return float64(intersection) / float64(union)
}
