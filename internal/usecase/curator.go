package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"LajmeCurator/internal/curation"
	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/metrics"
	"LajmeCurator/internal/ports"
	"LajmeCurator/internal/provider"
)

// CuratorConfig holds the defaults applied when a request leaves a knob unset.
type CuratorConfig struct {
	WindowHours    int
	DailyCount     int
	PerProvider    int
	CandidateLimit int
}

// Selection is one served list together with the numbers clients display.
type Selection struct {
	TotalFetched int
	Providers    []string
	Dedup        curation.Dedup
	Articles     []domain.Article
	FellBack     bool
}

// Curator reads candidate pools from the store and runs the curation engine.
type Curator struct {
	store  ports.ArticleStore
	engine *curation.Engine
	cfg    CuratorConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewCurator wires the read path. A nil engine gets the default ranking.
func NewCurator(store ports.ArticleStore, engine *curation.Engine, cfg CuratorConfig, logger *slog.Logger) *Curator {
	if engine == nil {
		engine = curation.NewEngine(nil)
	}
	if cfg.WindowHours <= 0 {
		cfg.WindowHours = 24
	}
	if cfg.DailyCount <= 0 {
		cfg.DailyCount = 10
	}
	if cfg.PerProvider <= 0 {
		cfg.PerProvider = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Curator{store: store, engine: engine, cfg: cfg, logger: logger, now: time.Now}
}

// Defaults exposes the configured fallbacks.
func (c *Curator) Defaults() CuratorConfig {
	return c.cfg
}

// Ranking exposes the provider table the engine ranks with.
func (c *Curator) Ranking() *provider.Table {
	return c.engine.Ranking()
}

// All returns every surviving article of the last hours hours.
func (c *Curator) All(ctx context.Context, providers []string, hours int, dedup curation.Dedup) (Selection, error) {
	if hours <= 0 {
		hours = c.cfg.WindowHours
	}
	return c.run(ctx, c.window(hours, providers), curation.AllForWindow(), dedup)
}

// Daily returns the exact-count digest of the last day.
func (c *Curator) Daily(ctx context.Context, providers []string, count int, dedup curation.Dedup) (Selection, error) {
	if count <= 0 {
		count = c.cfg.DailyCount
	}
	return c.run(ctx, c.window(24, providers), curation.ExactCount(count), dedup)
}

// ByProvider returns up to n articles per provider from the default window.
func (c *Curator) ByProvider(ctx context.Context, providers []string, n int, dedup curation.Dedup) (Selection, error) {
	if n <= 0 {
		n = c.cfg.PerProvider
	}
	return c.run(ctx, c.window(c.cfg.WindowHours, providers), curation.PerProvider(n), dedup)
}

func (c *Curator) window(hours int, providers []string) ports.CandidateQuery {
	return ports.CandidateQuery{
		Since:     c.now().Add(-time.Duration(hours) * time.Hour),
		Limit:     c.cfg.CandidateLimit,
		Providers: providers,
	}
}

func (c *Curator) run(ctx context.Context, q ports.CandidateQuery, mode curation.Mode, dedup curation.Dedup) (Selection, error) {
	if c.store == nil {
		return Selection{}, fmt.Errorf("article store is not configured")
	}

	pool, err := c.store.FetchCandidates(ctx, q)
	if err != nil {
		return Selection{}, fmt.Errorf("fetch candidates: %w", err)
	}

	started := time.Now()
	selected, err := c.engine.Select(pool, mode, dedup)
	if err != nil {
		return Selection{}, err
	}

	fellBack := false
	if len(selected) == 0 && len(pool) > 0 {
		selected = c.fallback(pool, mode)
		fellBack = true
		c.logger.Warn("selection emptied a non-empty pool, serving unfiltered", "mode", mode.String(), "pool", len(pool))
	}
	metrics.RecordSelection(mode.String(), len(selected), time.Since(started).Seconds(), fellBack)

	providers := q.Providers
	if len(providers) == 0 {
		providers = c.providersOf(pool)
	}

	return Selection{
		TotalFetched: len(pool),
		Providers:    providers,
		Dedup:        dedup,
		Articles:     selected,
		FellBack:     fellBack,
	}, nil
}

// fallback ranks the raw pool, trimmed to the size a count mode asked for.
func (c *Curator) fallback(pool []domain.Article, mode curation.Mode) []domain.Article {
	ranked := c.engine.SortByRank(pool)
	if mode.Kind == curation.ModeExactCount && len(ranked) > mode.N {
		ranked = ranked[:mode.N]
	}
	return ranked
}

func (c *Curator) providersOf(pool []domain.Article) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range pool {
		if a.Source == "" || seen[a.Source] {
			continue
		}
		seen[a.Source] = true
		out = append(out, a.Source)
	}
	ranking := c.engine.Ranking()
	sort.Slice(out, func(i, j int) bool {
		pi, pj := ranking.Priority(out[i]), ranking.Priority(out[j])
		if pi != pj {
			return pi > pj
		}
		return out[i] < out[j]
	})
	return out
}
