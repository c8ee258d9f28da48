package curation

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemoSize = 4096

type pairKey struct {
	a, b string
}

// Memo caches normalised titles and pairwise scores across selection passes.
// Keys are the literal inputs, so an entry can never change the outcome for
// different data. Both caches are bounded and safe for concurrent use.
type Memo struct {
	titles *lru.Cache[string, string]
	scores *lru.Cache[pairKey, float64]
}

// NewMemo builds a memo holding at most size entries per cache.
func NewMemo(size int) (*Memo, error) {
	if size <= 0 {
		size = defaultMemoSize
	}
	titles, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	scores, err := lru.New[pairKey, float64](size * 4)
	if err != nil {
		return nil, err
	}
	return &Memo{titles: titles, scores: scores}, nil
}

// Purge drops every cached entry.
func (m *Memo) Purge() {
	if m == nil {
		return
	}
	m.titles.Purge()
	m.scores.Purge()
}

// Len reports the number of cached titles and scores.
func (m *Memo) Len() (titles, scores int) {
	if m == nil {
		return 0, 0
	}
	return m.titles.Len(), m.scores.Len()
}

func (m *Memo) normalize(title string) string {
	if m == nil {
		return Normalize(title)
	}
	if v, ok := m.titles.Get(title); ok {
		return v
	}
	v := Normalize(title)
	m.titles.Add(title, v)
	return v
}

func (m *Memo) score(a, b string) float64 {
	key := pairKey{a, b}
	if b < a {
		key = pairKey{b, a}
	}
	if v, ok := m.scores.Get(key); ok {
		return v
	}
	v := pairScore(key.a, key.b)
	m.scores.Add(key, v)
	return v
}
