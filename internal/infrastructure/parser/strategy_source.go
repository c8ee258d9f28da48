package parser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"LajmeCurator/internal/config"
	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/ports"
	"LajmeCurator/internal/provider"
	"LajmeCurator/internal/scanner"
)

const defaultConcurrency = 4

// StrategySource implements ArticleSource via registered scanner strategies.
type StrategySource struct {
	registry    *scanner.Registry
	sites       []config.SiteConfig
	concurrency int
	logger      *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, concurrency int, log *slog.Logger) *StrategySource {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &StrategySource{
		registry:    reg,
		sites:       sites,
		concurrency: concurrency,
		logger:      log,
	}
}

// FetchDaily scans every configured site concurrently. A failing site is
// reported in FetchResult.Failed and does not abort the others; an error is
// returned only when no site could be scanned.
func (s *StrategySource) FetchDaily(ctx context.Context, day time.Time) (ports.FetchResult, error) {
	if s.registry == nil {
		return ports.FetchResult{}, fmt.Errorf("scanner registry is not configured")
	}

	s.debug("fetch daily", "sites", len(s.sites), "day", day.Format("2006-01-02"))

	var (
		perSite = make([][]domain.Article, len(s.sites))
		mu      sync.Mutex
		failed  []string
		lastErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, site := range s.sites {
		g.Go(func() error {
			results, err := s.scanSite(gctx, site)
			if err != nil {
				s.warn("site scan failed", "site", site.Name, "error", err)
				mu.Lock()
				failed = append(failed, site.Name)
				lastErr = err
				mu.Unlock()
				return nil
			}
			perSite[i] = results
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return ports.FetchResult{}, err
	}
	if len(s.sites) > 0 && len(failed) == len(s.sites) {
		return ports.FetchResult{Failed: failed}, fmt.Errorf("all %d sites failed: %w", len(failed), lastErr)
	}

	var aggregated []domain.Article
	for _, results := range perSite {
		aggregated = append(aggregated, results...)
	}

	s.debug("strategy source done", "total_articles", len(aggregated), "failed_sites", len(failed))
	return ports.FetchResult{Articles: aggregated, Failed: failed}, nil
}

func (s *StrategySource) scanSite(ctx context.Context, site config.SiteConfig) ([]domain.Article, error) {
	s.debug("process site", "site", site.Name, "scanner", site.Scanner, "pages", len(site.Pages()))
	strategy, err := s.registry.Resolve(site.Scanner)
	if err != nil {
		return nil, fmt.Errorf("site %s: %w", site.Name, err)
	}

	req := scanner.Request{
		Site:    site.Name,
		Options: scanner.Options(site.Options),
		Pages:   toScannerPages(site.Pages()),
	}

	results, err := strategy.Scan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("scan site %s: %w", site.Name, err)
	}

	fallback := provider.Canonical(site.Name)
	for i := range results {
		if results[i].Source == "" {
			results[i].Source = fallback
		} else {
			results[i].Source = provider.Canonical(results[i].Source)
		}
	}
	s.debug("site produced articles", "site", site.Name, "count", len(results))
	return results, nil
}

func toScannerPages(cfg []config.CategoryConfig) []scanner.Page {
	pages := make([]scanner.Page, 0, len(cfg))
	for _, cat := range cfg {
		pages = append(pages, scanner.Page{Name: cat.Name, URL: cat.URL})
	}
	return pages
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
