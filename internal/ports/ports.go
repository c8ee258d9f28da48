package ports

import (
	"context"
	"time"

	"LajmeCurator/internal/domain"
)

// CandidateQuery bounds a candidate-pool read.
type CandidateQuery struct {
	Since     time.Time
	Until     time.Time // zero means open-ended
	Limit     int       // zero means no limit
	Providers []string  // canonical ids; empty means every provider
}

// ArticleStore is the persistent article table shared by scrapers,
// the curation endpoints and the retention job.
type ArticleStore interface {
	// FetchCandidates returns rows in the window ordered by created_at desc.
	FetchCandidates(ctx context.Context, q CandidateQuery) ([]domain.Article, error)
	ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)
	InsertArticles(ctx context.Context, articles []domain.Article) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	TrimToNewest(ctx context.Context, keep int) (int64, error)
	Ping(ctx context.Context) error
}

// FetchResult is one harvest over every configured site.
type FetchResult struct {
	Articles []domain.Article
	Failed   []string
}

// ArticleSource pulls fresh articles from upstream providers.
type ArticleSource interface {
	FetchDaily(ctx context.Context, day time.Time) (FetchResult, error)
}

// SubscriptionStore persists paid plans that lift the free view quota.
type SubscriptionStore interface {
	GetSubscription(ctx context.Context, userID string) (domain.Subscription, bool, error)
	UpsertSubscription(ctx context.Context, sub domain.Subscription) error
}

// QuotaCounter keeps per-user, per-day view counters.
type QuotaCounter interface {
	Increment(ctx context.Context, userID string, day time.Time) (int64, error)
	Decrement(ctx context.Context, userID string, day time.Time) error
	Count(ctx context.Context, userID string, day time.Time) (int64, error)
}

// Notifier streams selected digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(context.Context, time.Time)) error
	Stop(ctx context.Context) error
}
