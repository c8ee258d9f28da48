package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/metrics"
	"LajmeCurator/internal/ports"
)

// Retention bounds the article table by age and by row count.
type Retention struct {
	store   ports.ArticleStore
	maxAge  time.Duration
	maxRows int
	logger  *slog.Logger
}

// NewRetention builds the cleanup job. maxRows 0 disables the row cap.
func NewRetention(store ports.ArticleStore, maxAge time.Duration, maxRows int, logger *slog.Logger) *Retention {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retention{store: store, maxAge: maxAge, maxRows: maxRows, logger: logger}
}

// Run deletes rows older than maxAge, then trims to the newest maxRows.
func (r *Retention) Run(ctx context.Context, now time.Time) (domain.RetentionReport, error) {
	var report domain.RetentionReport
	if r.store == nil {
		return report, nil
	}

	if r.maxAge > 0 {
		n, err := r.store.DeleteOlderThan(ctx, now.Add(-r.maxAge))
		if err != nil {
			return report, fmt.Errorf("delete expired: %w", err)
		}
		report.ExpiredDeleted = n
	}

	if r.maxRows > 0 {
		n, err := r.store.TrimToNewest(ctx, r.maxRows)
		if err != nil {
			return report, fmt.Errorf("trim overflow: %w", err)
		}
		report.OverflowDeleted = n
	}

	metrics.RecordRetention(report.ExpiredDeleted, report.OverflowDeleted)
	r.logger.Info("retention finished", "expired", report.ExpiredDeleted, "overflow", report.OverflowDeleted)
	return report, nil
}
