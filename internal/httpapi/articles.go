package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"LajmeCurator/internal/curation"
	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/usecase"
)

type articleDTO struct {
	Title             string    `json:"title"`
	URL               string    `json:"url"`
	PublicationSource string    `json:"publication_source"`
	CreatedAt         time.Time `json:"created_at"`
}

type selectionResponse struct {
	TotalFetched        int          `json:"total_fetched"`
	ProvidersIncluded   []string     `json:"providers_included"`
	FilteringApplied    bool         `json:"filtering_applied"`
	SimilarityThreshold *float64     `json:"similarity_threshold,omitempty"`
	TotalAfterFiltering int          `json:"total_after_filtering"`
	Page                int          `json:"page"`
	Limit               int          `json:"limit"`
	Data                []articleDTO `json:"data"`
}

type providerDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}

type providersResponse struct {
	DefaultPriority int           `json:"default_priority"`
	Providers       []providerDTO `json:"providers"`
}

// readParams are the query parameters shared by every article list.
type readParams struct {
	providers []string
	dedup     curation.Dedup
	page      pagination
}

func parseReadParams(c echo.Context, opts Options) (readParams, error) {
	dedup, err := parseDedup(c.QueryParam("similarity_threshold"), opts.DefaultThreshold)
	if err != nil {
		return readParams{}, err
	}
	page, err := parsePagination(c)
	if err != nil {
		return readParams{}, err
	}
	return readParams{
		providers: parseProviders(c.QueryParam("providers")),
		dedup:     dedup,
		page:      page,
	}, nil
}

func allArticles(cur *usecase.Curator, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cur == nil {
			return unavailable("curator")
		}
		params, err := parseReadParams(c, opts)
		if err != nil {
			return err
		}
		hours, err := parseBoundedInt(c, "hours", maxHours)
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(c, opts.RequestTimeout)
		defer cancel()

		sel, err := cur.All(ctx, params.providers, hours, params.dedup)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, newSelectionResponse(sel, params.page))
	}
}

func dailyArticles(cur *usecase.Curator, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cur == nil {
			return unavailable("curator")
		}
		params, err := parseReadParams(c, opts)
		if err != nil {
			return err
		}
		count, err := parseBoundedInt(c, "count", maxCount)
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(c, opts.RequestTimeout)
		defer cancel()

		sel, err := cur.Daily(ctx, params.providers, count, params.dedup)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, newSelectionResponse(sel, params.page))
	}
}

func articlesByProvider(cur *usecase.Curator, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cur == nil {
			return unavailable("curator")
		}
		params, err := parseReadParams(c, opts)
		if err != nil {
			return err
		}
		n, err := parseBoundedInt(c, "per_provider", maxPerSource)
		if err != nil {
			return err
		}

		ctx, cancel := requestContext(c, opts.RequestTimeout)
		defer cancel()

		sel, err := cur.ByProvider(ctx, params.providers, n, params.dedup)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, newSelectionResponse(sel, params.page))
	}
}

func listProviders(cur *usecase.Curator) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cur == nil {
			return unavailable("curator")
		}
		ranking := cur.Ranking()
		resp := providersResponse{DefaultPriority: ranking.DefaultPriority}
		for _, e := range ranking.Entries() {
			resp.Providers = append(resp.Providers, providerDTO{ID: e.ID, Name: e.Name, Priority: e.Priority})
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func newSelectionResponse(sel usecase.Selection, p pagination) selectionResponse {
	page, applied := paginate(sel.Articles, p)

	resp := selectionResponse{
		TotalFetched:        sel.TotalFetched,
		ProvidersIncluded:   sel.Providers,
		FilteringApplied:    sel.Dedup.Enabled && !sel.FellBack,
		TotalAfterFiltering: len(sel.Articles),
		Page:                applied.Page,
		Limit:               applied.Limit,
		Data:                toDTOs(page),
	}
	if resp.ProvidersIncluded == nil {
		resp.ProvidersIncluded = []string{}
	}
	if resp.FilteringApplied {
		t := sel.Dedup.Threshold
		resp.SimilarityThreshold = &t
	}
	return resp
}

func toDTOs(articles []domain.Article) []articleDTO {
	out := make([]articleDTO, len(articles))
	for i, a := range articles {
		out[i] = articleDTO{
			Title:             a.Title,
			URL:               a.URL,
			PublicationSource: a.Source,
			CreatedAt:         a.CreatedAt.UTC(),
		}
	}
	return out
}
