// Package scanner defines the scraping strategies a site can be read with
// and the registry the scrape source resolves them from.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"LajmeCurator/internal/domain"
)

// ErrUnknownScanner is returned when a site names a strategy nobody registered.
var ErrUnknownScanner = errors.New("unknown scanner")

// Page is one listing page or feed of a site.
type Page struct {
	Name string
	URL  string
}

// Options are the per-site strategy settings from configuration.
type Options map[string]string

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func (o Options) Get(key, fallback string) string {
	if v := strings.TrimSpace(o[key]); v != "" {
		return v
	}
	return fallback
}

// Request describes one site to scan.
type Request struct {
	Site    string
	Pages   []Page
	Options Options
}

// Scanner reads headlines from a site. Returned articles carry title, URL
// and optionally a source; the pipeline stamps the creation time.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Article, error)
}

// Registry maps strategy names to scanners. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	scanners map[string]Scanner
}

// NewRegistry builds a registry holding the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner under its lowercased name.
func (r *Registry) Register(s Scanner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scanners == nil {
		r.scanners = make(map[string]Scanner)
	}
	r.scanners[key(s.Name())] = s
}

// Resolve returns the scanner registered under name.
func (r *Registry) Resolve(name string) (Scanner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.scanners[key(name)]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScanner, name)
}

// Missing returns the names that do not resolve, sorted and without repeats.
func (r *Registry) Missing(names ...string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, n := range names {
		k := key(n)
		if _, ok := r.scanners[k]; ok || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Names lists the registered strategies in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
