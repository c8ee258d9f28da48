package parser

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/scanner"
)

// Selector option keys understood by HTMLScanner.
const (
	OptionItem  = "item"
	OptionTitle = "title"
	OptionLink  = "link"
	OptionBase  = "base"
)

var defaultSelectors = map[string]string{
	OptionItem:  "article",
	OptionTitle: "h1, h2, h3",
	OptionLink:  "a[href]",
}

// HTMLScanner extracts headlines from listing pages with CSS selectors taken
// from the site options.
type HTMLScanner struct {
	fetcher *Fetcher
}

// NewHTMLScanner wires a page fetcher; nil gets a default one.
func NewHTMLScanner(fetcher *Fetcher) *HTMLScanner {
	if fetcher == nil {
		fetcher = NewFetcher(FetcherOptions{})
	}
	return &HTMLScanner{fetcher: fetcher}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

// Scan walks every category page of the site and returns one article per
// distinct link.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	if len(req.Pages) == 0 {
		return nil, fmt.Errorf("no pages provided for site %s", req.Site)
	}

	var (
		results []domain.Article
		seen    = map[string]struct{}{}
	)
	for _, page := range req.Pages {
		body, err := h.fetcher.Get(ctx, page.URL)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", page.Name, err)
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", page.Name, err)
		}

		base := req.Options.Get(OptionBase, page.URL)
		for _, article := range extractArticles(doc, base, req.Site, req.Options) {
			if _, ok := seen[article.URL]; ok {
				continue
			}
			seen[article.URL] = struct{}{}
			results = append(results, article)
		}
	}

	return results, nil
}

func selector(options scanner.Options, key string) string {
	return options.Get(key, defaultSelectors[key])
}

func extractArticles(doc *goquery.Document, base, siteName string, options scanner.Options) []domain.Article {
	baseURL, _ := url.Parse(base)
	titleSel := selector(options, OptionTitle)
	linkSel := selector(options, OptionLink)

	var collected []domain.Article
	doc.Find(selector(options, OptionItem)).Each(func(_ int, item *goquery.Selection) {
		article, ok := parseItem(item, baseURL, titleSel, linkSel)
		if !ok {
			return
		}
		article.Source = siteName
		collected = append(collected, article)
	})
	return collected
}

// parseItem reads the title and link of one listing entry. An entry that is
// itself a link supplies its own text as the title.
func parseItem(item *goquery.Selection, base *url.URL, titleSel, linkSel string) (domain.Article, bool) {
	href, isLink := item.Attr("href")

	titleNode := item.Find(titleSel).First()
	if titleNode.Length() == 0 {
		if !isLink {
			return domain.Article{}, false
		}
		titleNode = item
	}
	title := cleanText(titleNode.Text())

	ok := isLink
	if !ok {
		href, ok = titleNode.Find("a[href]").First().Attr("href")
	}
	if !ok {
		href, ok = item.Find(linkSel).First().Attr("href")
	}
	link := resolveLink(base, href)

	if !ok || title == "" || link == "" {
		return domain.Article{}, false
	}
	return domain.Article{Title: title, URL: link}, true
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	ref.Fragment = ""
	return ref.String()
}
