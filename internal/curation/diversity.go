package curation

import "LajmeCurator/internal/domain"

// Diversify reorders items so that no more than maxRun consecutive entries
// share a provider. When a run would grow too long the next item from another
// provider is pulled forward; at the tail, where no such item is left, the
// offending item is moved back to the latest position that keeps every run
// within bounds. The result is a permutation of items.
func Diversify(items []domain.Article, maxRun int) []domain.Article {
	out := append([]domain.Article(nil), items...)
	if maxRun <= 0 {
		return out
	}

	for i := maxRun; i < len(out); i++ {
		if !extendsRun(out, i, maxRun) {
			continue
		}

		j := i + 1
		for j < len(out) && out[j].Source == out[i].Source {
			j++
		}
		if j < len(out) {
			moved := out[j]
			copy(out[i+1:j+1], out[i:j])
			out[i] = moved
			continue
		}

		if !moveBack(out, i, maxRun) {
			break
		}
	}
	return out
}

// extendsRun reports whether out[i] would be the (maxRun+1)-th consecutive
// item from the same provider.
func extendsRun(out []domain.Article, i, maxRun int) bool {
	for k := 1; k <= maxRun; k++ {
		if out[i-k].Source != out[i].Source {
			return false
		}
	}
	return true
}

// moveBack relocates out[i] to the latest earlier position where it does not
// create an over-long run. It reports false when no such position exists.
func moveBack(out []domain.Article, i, maxRun int) bool {
	item := out[i]
	src := item.Source

	rest := make([]domain.Article, 0, len(out)-1)
	rest = append(rest, out[:i]...)
	rest = append(rest, out[i+1:]...)

	for p := i - 1; p >= 0; p-- {
		left := 0
		for k := p - 1; k >= 0 && rest[k].Source == src; k-- {
			left++
		}
		right := 0
		for k := p; k < len(rest) && rest[k].Source == src; k++ {
			right++
		}
		if left+right+1 > maxRun {
			continue
		}
		copy(out, rest[:p])
		out[p] = item
		copy(out[p+1:], rest[p:])
		return true
	}
	return false
}
