package curation

import (
	"fmt"
	"math"
	"sort"

	"LajmeCurator/internal/domain"
)

// ModeKind enumerates the output shapes Select can produce.
type ModeKind int

const (
	// ModeAll returns every surviving item of the window.
	ModeAll ModeKind = iota
	// ModeExactCount returns as close to N items as the pool allows.
	ModeExactCount
	// ModePerProvider returns up to N items from each provider.
	ModePerProvider
)

// Mode is the target output shape of a selection pass.
type Mode struct {
	Kind ModeKind
	N    int
}

// AllForWindow selects every deduplicated item of the queried window.
func AllForWindow() Mode { return Mode{Kind: ModeAll} }

// ExactCount selects n items using the provider quota phases.
func ExactCount(n int) Mode { return Mode{Kind: ModeExactCount, N: n} }

// PerProvider selects up to n items per provider.
func PerProvider(n int) Mode { return Mode{Kind: ModePerProvider, N: n} }

func (m Mode) String() string {
	switch m.Kind {
	case ModeAll:
		return "all"
	case ModeExactCount:
		return "exact_count"
	case ModePerProvider:
		return "per_provider"
	default:
		return "unknown"
	}
}

// Dedup configures near-duplicate filtering for a selection pass. The zero
// value disables filtering entirely, which is not the same as threshold 0.
type Dedup struct {
	Enabled   bool
	Threshold float64
}

// NoDedup skips the deduplication engine.
var NoDedup = Dedup{}

// DedupAt enables filtering at threshold t.
func DedupAt(t float64) Dedup { return Dedup{Enabled: true, Threshold: t} }

// Select runs deduplication and distribution for one request.
func (e *Engine) Select(items []domain.Article, mode Mode, dedup Dedup) ([]domain.Article, error) {
	if dedup.Enabled {
		if err := validThreshold(dedup.Threshold); err != nil {
			return nil, err
		}
	}

	switch mode.Kind {
	case ModeAll:
		return e.selectAll(items, dedup)
	case ModeExactCount:
		if mode.N <= 0 {
			return nil, fmt.Errorf("%w: exact count %d", ErrInvalidMode, mode.N)
		}
		return e.selectExact(items, mode.N, dedup), nil
	case ModePerProvider:
		if mode.N <= 0 {
			return nil, fmt.Errorf("%w: per provider %d", ErrInvalidMode, mode.N)
		}
		return e.selectPerProvider(items, mode.N, dedup), nil
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidMode, mode.Kind)
	}
}

func (e *Engine) selectAll(items []domain.Article, dedup Dedup) ([]domain.Article, error) {
	pool := make([]domain.Article, 0, len(items))
	if dedup.Enabled {
		deduped, err := e.Dedupe(items, dedup.Threshold)
		if err != nil {
			return nil, err
		}
		pool = deduped
	} else {
		for _, it := range items {
			if it.Valid() {
				pool = append(pool, it)
			}
		}
	}
	return Diversify(e.SortByRank(pool), e.policy.MaxRun), nil
}

// picker accumulates a selection. Candidates reaching it are already
// deduplicated, so only the loosened final slots check for collisions.
type picker struct {
	engine *Engine
	used   map[int]bool
	titles []string
	out    []candidate
}

func newPicker(e *Engine) *picker {
	return &picker{engine: e, used: make(map[int]bool)}
}

func (p *picker) take(c candidate) bool {
	if p.used[c.index] {
		return false
	}
	p.used[c.index] = true
	p.titles = append(p.titles, c.title)
	p.out = append(p.out, c)
	return true
}

// takeDistinct accepts c only if it stays below threshold against every
// selected title.
func (p *picker) takeDistinct(c candidate, threshold float64) bool {
	if p.engine.collides(c.title, p.titles, threshold) {
		return false
	}
	return p.take(c)
}

func (p *picker) articles() []domain.Article {
	out := make([]domain.Article, len(p.out))
	for i, c := range p.out {
		out[i] = c.article
	}
	return out
}

// pool returns the candidates selection works on and, when filtering, the
// near-duplicates that lost to a cluster representative.
func (e *Engine) pool(items []domain.Article, dedup Dedup) (kept, dropped []candidate) {
	cs := e.candidates(items)
	if !dedup.Enabled {
		return cs, nil
	}
	return e.survivors(cs, dedup.Threshold)
}

// newestFirst orders candidates by recency, rank breaking ties.
func (e *Engine) newestFirst(cs []candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i].article, cs[j].article
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return e.Better(a, b)
	})
}

// byProvider groups candidates per provider, best first inside each group,
// and returns the providers in descending priority.
func (e *Engine) byProvider(cs []candidate) ([]string, map[string][]candidate) {
	groups := make(map[string][]candidate)
	for _, c := range cs {
		groups[c.article.Source] = append(groups[c.article.Source], c)
	}
	order := make([]string, 0, len(groups))
	for src, list := range groups {
		e.rankSort(list)
		order = append(order, src)
	}
	sort.Slice(order, func(i, j int) bool {
		pi, pj := e.ranking.Priority(order[i]), e.ranking.Priority(order[j])
		if pi != pj {
			return pi > pj
		}
		return order[i] < order[j]
	})
	return order, groups
}

// selectExact fills n slots from the deduplicated pool in three phases: one
// per provider, round-robin up to per-provider caps, then most-recent
// leftovers. When the pool runs dry within the last RelaxedSlots slots those
// slots may take displaced near-duplicates under a loosened threshold.
func (e *Engine) selectExact(items []domain.Article, n int, dedup Dedup) []domain.Article {
	cs, dropped := e.pool(items, dedup)
	order, groups := e.byProvider(cs)
	p := newPicker(e)

	counts := make(map[string]int, len(order))
	cursor := make(map[string]int, len(order))

	next := func(src string) bool {
		list := groups[src]
		for cursor[src] < len(list) {
			c := list[cursor[src]]
			cursor[src]++
			if p.take(c) {
				counts[src]++
				return true
			}
		}
		return false
	}

	for _, src := range order {
		if len(p.out) == n {
			break
		}
		next(src)
	}

	for progress := true; progress && len(p.out) < n; {
		progress = false
		for i, src := range order {
			if len(p.out) == n {
				break
			}
			limit := e.policy.ProviderCap
			if i == 0 {
				limit = e.policy.TopProviderCap
			}
			if counts[src] >= limit {
				continue
			}
			if next(src) {
				progress = true
			}
		}
	}

	if len(p.out) < n {
		rest := make([]candidate, 0, len(cs))
		for _, c := range cs {
			if !p.used[c.index] {
				rest = append(rest, c)
			}
		}
		e.newestFirst(rest)
		for _, c := range rest {
			if len(p.out) == n {
				break
			}
			p.take(c)
		}
	}

	if short := n - len(p.out); short > 0 && short <= e.policy.RelaxedSlots && len(dropped) > 0 {
		loosened := math.Min(1, dedup.Threshold+e.policy.RelaxedThresholdDelta)
		e.newestFirst(dropped)
		for _, c := range dropped {
			if len(p.out) == n {
				break
			}
			p.takeDistinct(c, loosened)
		}
	}

	out := p.articles()
	if e.policy.DiversifyExact {
		out = Diversify(out, e.policy.MaxRun)
	}
	return out
}

func (e *Engine) selectPerProvider(items []domain.Article, n int, dedup Dedup) []domain.Article {
	cs, _ := e.pool(items, dedup)
	order, groups := e.byProvider(cs)
	p := newPicker(e)

	for _, src := range order {
		for i, c := range groups[src] {
			if i == n {
				break
			}
			p.take(c)
		}
	}
	return Diversify(e.SortByRank(p.articles()), e.policy.MaxRun)
}
