package curation

import (
	"strings"
	"unicode/utf8"
)

// DefaultThreshold is the system-wide similarity threshold.
const DefaultThreshold = 0.85

const (
	winklerPrefixScale = 0.1
	winklerMaxPrefix   = 4
	winklerBoostFloor  = 0.7
)

// Normalize prepares a title for comparison: lowercased, surrounding
// whitespace trimmed, nothing else.
func Normalize(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// Similar reports whether two titles are near-duplicates at the threshold.
func Similar(a, b string, threshold float64) bool {
	return similarNormalized(Normalize(a), Normalize(b), threshold, nil)
}

// Similarity returns the Jaro-Winkler score of two titles after normalisation.
func Similarity(a, b string) float64 {
	return pairScore(Normalize(a), Normalize(b))
}

// pairScore orders its arguments so the score does not depend on which title
// came first.
func pairScore(a, b string) float64 {
	if b < a {
		a, b = b, a
	}
	return jaroWinkler([]rune(a), []rune(b))
}

func similarNormalized(a, b string, threshold float64, memo *Memo) bool {
	if a == b {
		return true
	}
	if lengthsDiverge(utf8.RuneCountInString(a), utf8.RuneCountInString(b)) {
		return false
	}
	if memo != nil {
		return memo.score(a, b) >= threshold
	}
	return pairScore(a, b) >= threshold
}

// lengthsDiverge is the cheap pre-filter: titles whose lengths differ by more
// than half their average length are never compared.
func lengthsDiverge(la, lb int) bool {
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) > 0.5*float64(la+lb)/2
}

func jaroWinkler(a, b []rune) float64 {
	j := jaro(a, b)
	if j < winklerBoostFloor {
		return j
	}

	prefix := 0
	for prefix < len(a) && prefix < len(b) && prefix < winklerMaxPrefix && a[prefix] == b[prefix] {
		prefix++
	}
	return j + float64(prefix)*winklerPrefixScale*(1-j)
}

func jaro(a, b []rune) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	window := max(len(a), len(b))/2 - 1
	if window < 0 {
		window = 0
	}

	matchedA := make([]bool, len(a))
	matchedB := make([]bool, len(b))
	matches := 0
	for i := range a {
		lo := max(0, i-window)
		hi := min(len(b), i+window+1)
		for k := lo; k < hi; k++ {
			if matchedB[k] || a[i] != b[k] {
				continue
			}
			matchedA[i] = true
			matchedB[k] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := range a {
		if !matchedA[i] {
			continue
		}
		for !matchedB[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(len(a)) + m/float64(len(b)) + (m-float64(transpositions)/2)/m) / 3
}
