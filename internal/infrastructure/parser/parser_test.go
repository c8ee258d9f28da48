package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"LajmeCurator/internal/config"
	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/provider"
	"LajmeCurator/internal/scanner"
)

const listingHTML = `
<html><body>
  <article><h2><a href="/lajme/1">Qeveria aprovon buxhetin &amp; planin</a></h2></article>
  <article><h2>Tërmet me magnitudë 4.2</h2><a href="https://koha.net/lajme/2#komente">Lexo</a></article>
  <article><h2><a href="javascript:void(0)">Reklamë</a></h2></article>
  <article><p>Pa titull</p><a href="/lajme/3">x</a></article>
  <article><h2><a href="/lajme/1">Qeveria aprovon buxhetin &amp; planin</a></h2></article>
</body></html>`

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Telegrafi</title>
  <item><title><![CDATA[Kuvendi <b>miraton</b> ligjin]]></title><link>https://telegrafi.com/a</link></item>
  <item><title>Ndeshja përfundon baras</title><link>https://telegrafi.com/b</link></item>
  <item><title></title><link>https://telegrafi.com/c</link></item>
  <item><title>Ndeshja përfundon baras</title><link>https://telegrafi.com/b</link></item>
</channel></rss>`

func fastFetcher() *Fetcher {
	return NewFetcher(FetcherOptions{Timeout: 2 * time.Second, RequestsPerSecond: 1000, Burst: 100})
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	got := cleanText("  <b>Qeveria</b>\n aprovon &amp; &quot;buxhetin&quot; ")
	if got != `Qeveria aprovon & "buxhetin"` {
		t.Fatalf("unexpected text: %q", got)
	}
	if got := cleanText("Tërmet në jug"); got != "Tërmet në jug" {
		t.Fatalf("diacritics mangled: %q", got)
	}
}

func TestResolveLink(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse("https://koha.net/arberi/")
	cases := map[string]string{
		"/lajme/1":             "https://koha.net/lajme/1",
		"lajme/2":              "https://koha.net/arberi/lajme/2",
		"https://x.com/a#frag": "https://x.com/a",
		"#top":                 "",
		"javascript:void(0)":   "",
		"mailto:a@b":           "",
		"":                     "",
	}
	for in, want := range cases {
		if got := resolveLink(base, in); got != want {
			t.Fatalf("resolveLink(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractArticles(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(listingHTML))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	articles := extractArticles(doc, "https://koha.net/", "Koha", nil)
	if len(articles) != 3 {
		t.Fatalf("expected 3 entries (duplicates kept until Scan), got %d: %+v", len(articles), articles)
	}
	if articles[0].Title != "Qeveria aprovon buxhetin & planin" || articles[0].URL != "https://koha.net/lajme/1" {
		t.Fatalf("unexpected first article: %+v", articles[0])
	}
	if articles[1].URL != "https://koha.net/lajme/2" {
		t.Fatalf("fragment not stripped: %s", articles[1].URL)
	}
	if articles[0].Source != "Koha" {
		t.Fatalf("unexpected source: %s", articles[0].Source)
	}
}

func TestHTMLScannerScan(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing user agent")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(listingHTML))
	}))
	defer srv.Close()

	sc := NewHTMLScanner(fastFetcher())
	articles, err := sc.Scan(context.Background(), scanner.Request{
		Site:    "Koha",
		Pages:   []scanner.Page{{Name: "main", URL: srv.URL + "/arberi"}},
		Options: scanner.Options{OptionTitle: "h2"},
	})
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 distinct articles, got %d", len(articles))
	}
	if articles[0].URL != srv.URL+"/lajme/1" {
		t.Fatalf("relative link not resolved: %s", articles[0].URL)
	}
}

func TestHTMLScannerRequiresPages(t *testing.T) {
	t.Parallel()

	if _, err := NewHTMLScanner(nil).Scan(context.Background(), scanner.Request{Site: "x"}); err == nil {
		t.Fatalf("expected error without pages")
	}
}

func TestFeedScannerScan(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer srv.Close()

	articles, err := NewFeedScanner(fastFetcher()).Scan(context.Background(), scanner.Request{
		Site:  "Telegrafi",
		Pages: []scanner.Page{{Name: "main", URL: srv.URL}},
	})
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d: %+v", len(articles), articles)
	}
	if articles[0].Title != "Kuvendi miraton ligjin" {
		t.Fatalf("markup not stripped: %q", articles[0].Title)
	}
}

func TestFetcherReportsHTTPErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := fastFetcher().Get(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error for 404")
	}
	if hits.Load() != 1 {
		t.Fatalf("client errors must not be retried, got %d hits", hits.Load())
	}
}

type fakeScanner struct {
	name    string
	results map[string][]domain.Article
}

func (f fakeScanner) Name() string { return f.name }

func (f fakeScanner) Scan(_ context.Context, req scanner.Request) ([]domain.Article, error) {
	res, ok := f.results[req.Site]
	if !ok {
		return nil, errors.New("site down")
	}
	return res, nil
}

func TestStrategySourceToleratesFailingSites(t *testing.T) {
	t.Parallel()

	reg := scanner.NewRegistry(fakeScanner{name: "rss", results: map[string][]domain.Article{
		"Telegrafi": {{Title: "A", URL: "https://telegrafi.com/a"}},
		"Koha":      {{Title: "B", URL: "https://koha.net/b", Source: "koha.net"}},
	}})
	sites := []config.SiteConfig{
		{Name: "Telegrafi", Scanner: "rss", URL: "https://telegrafi.com/feed"},
		{Name: "Broken", Scanner: "rss", URL: "https://broken/feed"},
		{Name: "Koha", Scanner: "rss", URL: "https://koha.net/feed"},
		{Name: "Unknown", Scanner: "missing", URL: "https://x/feed"},
	}

	res, err := NewStrategySource(reg, sites, 2, nil).FetchDaily(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if len(res.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(res.Articles))
	}
	if res.Articles[0].Source != provider.Telegrafi || res.Articles[1].Source != provider.Koha {
		t.Fatalf("sources not canonical or out of site order: %+v", res.Articles)
	}
	if len(res.Failed) != 2 {
		t.Fatalf("expected 2 failed sites, got %v", res.Failed)
	}
}

func TestStrategySourceAllSitesFailing(t *testing.T) {
	t.Parallel()

	reg := scanner.NewRegistry(fakeScanner{name: "rss"})
	sites := []config.SiteConfig{{Name: "Broken", Scanner: "rss", URL: "https://broken/feed"}}

	res, err := NewStrategySource(reg, sites, 1, nil).FetchDaily(context.Background(), time.Now())
	if err == nil {
		t.Fatalf("expected error when every site fails")
	}
	if len(res.Failed) != 1 {
		t.Fatalf("failed sites not reported: %v", res.Failed)
	}
}

func TestStrategySourceRequiresRegistry(t *testing.T) {
	t.Parallel()

	if _, err := NewStrategySource(nil, nil, 0, nil).FetchDaily(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected error without registry")
	}
}
