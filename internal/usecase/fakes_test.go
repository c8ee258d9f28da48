package usecase

import (
	"context"
	"sync"
	"time"

	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/ports"
)

type fakeStore struct {
	mu         sync.Mutex
	pool       []domain.Article
	existing   map[string]bool
	inserted   []domain.Article
	queries    []ports.CandidateQuery
	cutoff     time.Time
	keep       int
	fetchErr   error
	insertErr  error
	expiredN   int64
	overflowN  int64
	lookupURLs []string
}

func (f *fakeStore) FetchCandidates(_ context.Context, q ports.CandidateQuery) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]domain.Article(nil), f.pool...), nil
}

func (f *fakeStore) ExistingURLs(_ context.Context, urls []string) (map[string]bool, error) {
	f.lookupURLs = append(f.lookupURLs, urls...)
	out := make(map[string]bool)
	for _, u := range urls {
		if f.existing[u] {
			out[u] = true
		}
	}
	return out, nil
}

func (f *fakeStore) InsertArticles(_ context.Context, articles []domain.Article) (int, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, articles...)
	return len(articles), nil
}

func (f *fakeStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.expiredN, nil
}

func (f *fakeStore) TrimToNewest(_ context.Context, keep int) (int64, error) {
	f.keep = keep
	return f.overflowN, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

type fakeSource struct {
	result ports.FetchResult
	err    error
}

func (f fakeSource) FetchDaily(context.Context, time.Time) (ports.FetchResult, error) {
	return f.result, f.err
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}}
}

func (f *fakeCounter) key(user string, day time.Time) string {
	return user + ":" + day.UTC().Format("20060102")
}

func (f *fakeCounter) Increment(_ context.Context, user string, day time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[f.key(user, day)]++
	return f.counts[f.key(user, day)], nil
}

func (f *fakeCounter) Decrement(_ context.Context, user string, day time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[f.key(user, day)]--
	return nil
}

func (f *fakeCounter) Count(_ context.Context, user string, day time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[f.key(user, day)], nil
}

type fakeSubs struct {
	subs map[string]domain.Subscription
}

func (f *fakeSubs) GetSubscription(_ context.Context, userID string) (domain.Subscription, bool, error) {
	sub, ok := f.subs[userID]
	return sub, ok, nil
}

func (f *fakeSubs) UpsertSubscription(_ context.Context, sub domain.Subscription) error {
	if f.subs == nil {
		f.subs = map[string]domain.Subscription{}
	}
	f.subs[sub.UserID] = sub
	return nil
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, digest)
	return nil
}

// immediateDriver runs the job once, synchronously, on Start.
type immediateDriver struct {
	at      time.Time
	stopped bool
}

func (d *immediateDriver) Start(ctx context.Context, job func(context.Context, time.Time)) error {
	job(ctx, d.at)
	return nil
}

func (d *immediateDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
