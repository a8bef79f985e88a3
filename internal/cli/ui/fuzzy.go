package ui

import (
	"sort"
	"strings"
)

// MaxSuggestionDistance is the largest edit distance still offered as a suggestion
const MaxSuggestionDistance = 3

// Suggest returns up to limit candidates within MaxSuggestionDistance of target,
// closest first. Matching ignores case; ties keep candidate order.
func Suggest(target string, candidates []string, limit int) []string {
	type match struct {
		value    string
		distance int
	}

	lower := strings.ToLower(target)
	matches := make([]match, 0)
	for _, c := range candidates {
		if d := EditDistance(lower, strings.ToLower(c)); d <= MaxSuggestionDistance {
			matches = append(matches, match{value: c, distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]string, 0, limit)
	for i := 0; i < len(matches) && i < limit; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// EditDistance returns the Levenshtein distance between a and b, counted in bytes
func EditDistance(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
