package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"LajmeCurator/internal/usecase"
)

type scrapeResponse struct {
	RunID       string   `json:"run_id"`
	Fetched     int      `json:"fetched"`
	New         int      `json:"new"`
	Inserted    int      `json:"inserted"`
	FailedSites []string `json:"failed_sites"`
}

type cleanupResponse struct {
	ExpiredDeleted  int64 `json:"expired_deleted"`
	OverflowDeleted int64 `json:"overflow_deleted"`
}

type digestResponse struct {
	Sent int `json:"sent"`
}

func runScrape(p *usecase.Pipeline) echo.HandlerFunc {
	return func(c echo.Context) error {
		if p == nil {
			return unavailable("scrape pipeline")
		}
		report, err := p.Scrape(c.Request().Context())
		if err != nil {
			return err
		}
		failed := report.Failed
		if failed == nil {
			failed = []string{}
		}
		return c.JSON(http.StatusOK, scrapeResponse{
			RunID:       report.RunID,
			Fetched:     report.Fetched,
			New:         report.New,
			Inserted:    report.Inserted,
			FailedSites: failed,
		})
	}
}

func runCleanup(r *usecase.Retention, now func() time.Time) echo.HandlerFunc {
	return func(c echo.Context) error {
		if r == nil {
			return unavailable("retention")
		}
		report, err := r.Run(c.Request().Context(), now())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, cleanupResponse{
			ExpiredDeleted:  report.ExpiredDeleted,
			OverflowDeleted: report.OverflowDeleted,
		})
	}
}

func runDigest(d *usecase.DigestPublisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		if d == nil {
			return unavailable("digest")
		}
		sent, err := d.Publish(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, digestResponse{Sent: sent})
	}
}
