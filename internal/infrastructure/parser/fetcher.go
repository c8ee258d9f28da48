package parser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "LajmeCurator/1.0"

// FetcherOptions tunes outbound page requests.
type FetcherOptions struct {
	Timeout           time.Duration
	Retries           int
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

// Fetcher downloads pages through a shared rate limiter with retries.
type Fetcher struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewFetcher builds a fetcher; zero options fall back to conservative defaults.
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("User-Agent", opts.UserAgent).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &Fetcher{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
	}
}

// Get returns the body of pageURL or an error for non-2xx answers.
func (f *Fetcher) Get(ctx context.Context, pageURL string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	resp, err := f.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", pageURL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status())
	}
	return resp.Body(), nil
}
