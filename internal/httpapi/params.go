package httpapi

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"LajmeCurator/internal/curation"
	"LajmeCurator/internal/provider"
)

const (
	minThreshold = 0.5
	maxThreshold = 0.95
	maxLimit     = 500
	maxCount     = 100
	maxPerSource = 50
	maxHours     = 24 * 30
)

// ErrInvalidParameter marks a malformed query parameter.
var ErrInvalidParameter = errors.New("invalid parameter")

type paramError struct {
	Param  string
	Reason string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Reason)
}

func (e *paramError) Unwrap() error { return ErrInvalidParameter }

func invalidParam(name, format string, args ...any) error {
	return &paramError{Param: name, Reason: fmt.Sprintf(format, args...)}
}

// parseProviders reads a comma-separated provider list into canonical ids.
func parseProviders(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id := provider.Canonical(part)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// parseDedup reads similarity_threshold. Empty means the default threshold;
// none, false and 0 switch filtering off.
func parseDedup(raw string, fallback float64) (curation.Dedup, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	switch raw {
	case "":
		return curation.DedupAt(fallback), nil
	case "none", "false", "0":
		return curation.NoDedup, nil
	}

	t, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(t) {
		return curation.Dedup{}, invalidParam("similarity_threshold", "must be a number between %.2f and %.2f, or none", minThreshold, maxThreshold)
	}
	if t < minThreshold || t > maxThreshold {
		return curation.Dedup{}, invalidParam("similarity_threshold", "%v is outside [%.2f, %.2f]", t, minThreshold, maxThreshold)
	}
	return curation.DedupAt(t), nil
}

// parseBoundedInt reads an optional positive integer; 0 is returned when the
// parameter is absent. Values above upper are clamped.
func parseBoundedInt(c echo.Context, name string, upper int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, invalidParam(name, "must be a positive integer")
	}
	return min(n, upper), nil
}

type pagination struct {
	Page  int
	Limit int
}

func parsePagination(c echo.Context) (pagination, error) {
	page, err := parseBoundedInt(c, "page", math.MaxInt32)
	if err != nil {
		return pagination{}, err
	}
	limit, err := parseBoundedInt(c, "limit", maxLimit)
	if err != nil {
		return pagination{}, err
	}
	return pagination{Page: max(page, 1), Limit: limit}, nil
}

// paginate slices items to the requested page. A zero limit returns one page
// holding everything.
func paginate[T any](items []T, p pagination) ([]T, pagination) {
	if p.Limit == 0 {
		return items, pagination{Page: 1, Limit: len(items)}
	}
	start := (p.Page - 1) * p.Limit
	if start >= len(items) {
		return []T{}, p
	}
	end := min(start+p.Limit, len(items))
	return items[start:end], p
}
