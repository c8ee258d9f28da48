// Package curation collapses near-duplicate articles across providers and
// selects the ordered subsets served to clients.
package curation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/provider"
)

var (
	// ErrInvalidThreshold is returned for thresholds outside [0, 1].
	ErrInvalidThreshold = errors.New("similarity threshold out of range")
	// ErrInvalidMode is returned for selection modes that cannot be satisfied.
	ErrInvalidMode = errors.New("invalid selection mode")
)

// Policy holds the tunables of exact-count selection.
type Policy struct {
	TopProviderCap        int
	ProviderCap           int
	RelaxedSlots          int
	RelaxedThresholdDelta float64
	MaxRun                int
	DiversifyExact        bool
}

// DefaultPolicy returns the production selection tunables.
func DefaultPolicy() Policy {
	return Policy{
		TopProviderCap:        4,
		ProviderCap:           3,
		RelaxedSlots:          2,
		RelaxedThresholdDelta: 0.05,
		MaxRun:                2,
		DiversifyExact:        true,
	}
}

// Engine runs deduplication and selection against a ranking table.
// It keeps no per-call state; the optional memo is bounded and keyed by input.
type Engine struct {
	ranking *provider.Table
	policy  Policy
	memo    *Memo
}

// Option customises an Engine.
type Option func(*Engine)

// WithPolicy overrides the selection tunables.
func WithPolicy(p Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithMemo attaches a caller-owned memo.
func WithMemo(m *Memo) Option {
	return func(e *Engine) { e.memo = m }
}

// NewEngine builds an engine. A nil table falls back to provider.DefaultTable.
func NewEngine(ranking *provider.Table, opts ...Option) *Engine {
	if ranking == nil {
		ranking = provider.DefaultTable()
	}
	e := &Engine{ranking: ranking, policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(e)
	}
	if e.policy.MaxRun <= 0 {
		e.policy.MaxRun = 2
	}
	return e
}

// Ranking exposes the table the engine ranks with.
func (e *Engine) Ranking() *provider.Table {
	return e.ranking
}

// Better reports whether current should replace existing: strictly higher
// provider priority wins outright, equal priority falls back to recency.
// Identical priority and timestamp are broken by URL to stay deterministic.
func (e *Engine) Better(current, existing domain.Article) bool {
	pc, pe := e.ranking.Priority(current.Source), e.ranking.Priority(existing.Source)
	if pc != pe {
		return pc > pe
	}
	if !current.CreatedAt.Equal(existing.CreatedAt) {
		return current.CreatedAt.After(existing.CreatedAt)
	}
	return current.URL < existing.URL
}

func validThreshold(t float64) error {
	if math.IsNaN(t) || t < 0 || t > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, t)
	}
	return nil
}

type candidate struct {
	article domain.Article
	title   string
	index   int
}

// candidates drops malformed rows and normalises the rest.
func (e *Engine) candidates(items []domain.Article) []candidate {
	out := make([]candidate, 0, len(items))
	for i, it := range items {
		if !it.Valid() {
			continue
		}
		out = append(out, candidate{article: it, title: e.memo.normalize(it.Title), index: i})
	}
	return out
}

// rankSort orders candidates best first. Rows sharing a URL keep input order.
func (e *Engine) rankSort(cs []candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		return e.Better(cs[i].article, cs[j].article)
	})
}

func (e *Engine) collides(title string, accepted []string, threshold float64) bool {
	for _, t := range accepted {
		if similarNormalized(title, t, threshold, e.memo) {
			return true
		}
	}
	return false
}

// cluster is one connected component of the similarity graph.
type cluster struct {
	best    candidate
	members []candidate
}

// clusters links every pair of candidates scoring at or above threshold and
// returns the connected components ordered by their first input position.
// Raising the threshold only removes links, so clusters can split but never
// merge.
func (e *Engine) clusters(cs []candidate, threshold float64) []cluster {
	parent := make([]int, len(cs))
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := 1; i < len(cs); i++ {
		for j := 0; j < i; j++ {
			ri, rj := find(i), find(j)
			if ri == rj {
				continue
			}
			if similarNormalized(cs[i].title, cs[j].title, threshold, e.memo) {
				parent[ri] = rj
			}
		}
	}

	var out []cluster
	byRoot := make(map[int]int)
	for i, c := range cs {
		root := find(i)
		k, ok := byRoot[root]
		if !ok {
			k = len(out)
			byRoot[root] = k
			out = append(out, cluster{best: c})
		} else if e.Better(c.article, out[k].best.article) {
			out[k].best = c
		}
		out[k].members = append(out[k].members, c)
	}
	return out
}

// survivors splits candidates into one representative per cluster and the
// members each representative displaced.
func (e *Engine) survivors(cs []candidate, threshold float64) (kept, dropped []candidate) {
	for _, cl := range e.clusters(cs, threshold) {
		kept = append(kept, cl.best)
		for _, m := range cl.members {
			if m.index != cl.best.index {
				dropped = append(dropped, m)
			}
		}
	}
	return kept, dropped
}

// Dedupe collapses near-duplicate titles to one representative per story.
// Titles are grouped transitively: two articles share a story when a chain of
// similar titles links them. The survivor of each story is the best article
// by Better and takes the input position of the story's first member; the
// result keeps input order.
func (e *Engine) Dedupe(items []domain.Article, threshold float64) ([]domain.Article, error) {
	if err := validThreshold(threshold); err != nil {
		return nil, err
	}

	groups := e.clusters(e.candidates(items), threshold)
	out := make([]domain.Article, len(groups))
	for i, cl := range groups {
		out[i] = cl.best.article
	}
	return out, nil
}

// SortByRank orders articles by provider priority then recency, both
// descending. The input slice is not modified.
func (e *Engine) SortByRank(items []domain.Article) []domain.Article {
	cs := make([]candidate, len(items))
	for i, it := range items {
		cs[i] = candidate{article: it, index: i}
	}
	e.rankSort(cs)
	out := make([]domain.Article, len(cs))
	for i, c := range cs {
		out[i] = c.article
	}
	return out
}
