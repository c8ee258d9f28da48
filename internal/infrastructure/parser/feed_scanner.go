package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/scanner"
)

// FeedScanner reads RSS and Atom feeds.
type FeedScanner struct {
	fetcher *Fetcher
}

// NewFeedScanner wires a page fetcher; nil gets a default one.
func NewFeedScanner(fetcher *Fetcher) *FeedScanner {
	if fetcher == nil {
		fetcher = NewFetcher(FetcherOptions{})
	}
	return &FeedScanner{fetcher: fetcher}
}

// Name identifies the strategy inside the registry.
func (f *FeedScanner) Name() string {
	return "rss"
}

// Scan parses every feed URL of the site.
func (f *FeedScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Pages) == 0 {
		return nil, fmt.Errorf("no feeds provided for site %s", req.Site)
	}

	fp := gofeed.NewParser()
	var (
		results []domain.Article
		seen    = map[string]struct{}{}
	)
	for _, page := range req.Pages {
		body, err := f.fetcher.Get(ctx, page.URL)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", page.Name, err)
		}

		feed, err := fp.ParseString(string(body))
		if err != nil {
			return nil, fmt.Errorf("parse feed %s: %w", page.Name, err)
		}

		for _, item := range feed.Items {
			if item == nil {
				continue
			}
			title := cleanText(item.Title)
			link := strings.TrimSpace(item.Link)
			if title == "" || link == "" {
				continue
			}
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			results = append(results, domain.Article{Title: title, URL: link, Source: req.Site})
		}
	}

	return results, nil
}
