package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"LajmeCurator/internal/curation"
	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/ports"
	"LajmeCurator/internal/provider"
)

// DigestPublisher posts the daily exact-count selection to a notifier.
type DigestPublisher struct {
	curator   *Curator
	notifier  ports.Notifier
	count     int
	threshold float64
	location  *time.Location
	logger    *slog.Logger
	now       func() time.Time
}

// NewDigestPublisher wires the digest job. A nil location means UTC.
func NewDigestPublisher(curator *Curator, notifier ports.Notifier, count int, threshold float64, loc *time.Location, logger *slog.Logger) *DigestPublisher {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DigestPublisher{
		curator:   curator,
		notifier:  notifier,
		count:     count,
		threshold: threshold,
		location:  loc,
		logger:    logger,
		now:       time.Now,
	}
}

// Publish selects today's digest and sends it. It returns the number of
// articles sent; nothing is sent for an empty selection.
func (d *DigestPublisher) Publish(ctx context.Context) (int, error) {
	if d.curator == nil || d.notifier == nil {
		return 0, nil
	}

	sel, err := d.curator.Daily(ctx, nil, d.count, curation.DedupAt(d.threshold))
	if err != nil {
		return 0, fmt.Errorf("select digest: %w", err)
	}
	if len(sel.Articles) == 0 {
		d.logger.Info("digest skipped, no articles")
		return 0, nil
	}

	message := buildDigestMessage(d.now().In(d.location), sel.Articles, d.curator.Ranking())
	if err := d.notifier.PublishDigest(ctx, message); err != nil {
		return 0, fmt.Errorf("publish digest: %w", err)
	}

	d.logger.Info("digest published", "articles", len(sel.Articles))
	return len(sel.Articles), nil
}

func buildDigestMessage(day time.Time, articles []domain.Article, ranking *provider.Table) string {
	if len(articles) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Lajmet kryesore %s*\n\n", day.Format("02.01.2006"))
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. [%s](%s) _%s_\n",
			i+1,
			escapeMarkdown(a.Title),
			a.URL,
			escapeMarkdown(ranking.Name(a.Source)))
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
