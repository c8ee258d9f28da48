package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/metrics"
	"LajmeCurator/internal/ports"
)

// PipelineDeps wires all driven adapters into the scrape pipeline.
type PipelineDeps struct {
	Source ports.ArticleSource
	Store  ports.ArticleStore
	Logger *slog.Logger
	Now    func() time.Time
}

// Pipeline implements the article-ingestion workflow.
type Pipeline struct {
	source ports.ArticleSource
	store  ports.ArticleStore
	logger *slog.Logger
	now    func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source: deps.Source,
		store:  deps.Store,
		logger: logger,
		now:    now,
	}
}

// Scrape runs one pass: fetch every site, drop articles already stored and
// insert the rest stamped with the current time.
func (p *Pipeline) Scrape(ctx context.Context) (domain.ScrapeReport, error) {
	report := domain.ScrapeReport{RunID: uuid.NewString()}
	if p.source == nil || p.store == nil {
		return report, nil
	}

	now := p.now().UTC()
	log := p.logger.With("run_id", report.RunID)

	fetched, err := p.source.FetchDaily(ctx, now)
	report.Failed = fetched.Failed
	if err != nil {
		metrics.RecordScrape(nil, 0, report.Failed)
		return report, fmt.Errorf("fetch daily: %w", err)
	}
	report.Fetched = len(fetched.Articles)

	candidates := uniqueByURL(fetched.Articles)

	urls := make([]string, len(candidates))
	for i, art := range candidates {
		urls[i] = art.URL
	}

	skip, err := p.store.ExistingURLs(ctx, urls)
	if err != nil {
		return report, fmt.Errorf("load existing: %w", err)
	}

	perProvider := make(map[string]int)
	fresh := make([]domain.Article, 0, len(candidates))
	for _, art := range candidates {
		perProvider[art.Source]++
		if skip[art.URL] {
			continue
		}
		art.CreatedAt = now
		fresh = append(fresh, art)
	}
	report.New = len(fresh)

	inserted, err := p.store.InsertArticles(ctx, fresh)
	report.Inserted = inserted
	metrics.RecordScrape(perProvider, inserted, report.Failed)
	if err != nil {
		return report, fmt.Errorf("persist articles: %w", err)
	}

	log.Info("scrape finished",
		"fetched", report.Fetched,
		"new", report.New,
		"inserted", report.Inserted,
		"failed_sites", strings.Join(report.Failed, ","))
	return report, nil
}

// uniqueByURL drops articles without title or URL and repeated URLs,
// keeping the first occurrence.
func uniqueByURL(articles []domain.Article) []domain.Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]domain.Article, 0, len(articles))
	for _, art := range articles {
		art.Title = strings.TrimSpace(art.Title)
		art.URL = strings.TrimSpace(art.URL)
		if art.Title == "" || art.URL == "" {
			continue
		}
		if _, ok := seen[art.URL]; ok {
			continue
		}
		seen[art.URL] = struct{}{}
		out = append(out, art)
	}
	return out
}
