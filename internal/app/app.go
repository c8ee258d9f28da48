package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"LajmeCurator/internal/config"
	"LajmeCurator/internal/curation"
	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/httpapi"
	"LajmeCurator/internal/infrastructure/parser"
	"LajmeCurator/internal/infrastructure/quota"
	"LajmeCurator/internal/infrastructure/scheduler"
	"LajmeCurator/internal/infrastructure/storage"
	"LajmeCurator/internal/infrastructure/telegram"
	"LajmeCurator/internal/logging"
	"LajmeCurator/internal/ports"
	"LajmeCurator/internal/provider"
	"LajmeCurator/internal/scanner"
	"LajmeCurator/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	repo  *storage.PostgresRepository

	curator   *usecase.Curator
	pipeline  *usecase.Pipeline
	retention *usecase.Retention
	digest    *usecase.DigestPublisher
}

// New connects to Postgres and builds every use case that depends on it.
// Redis is only dialled by Serve.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	pool, err := storage.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	repo := storage.NewPostgresRepository(pool)

	engine, err := NewEngine(cfg.Curation)
	if err != nil {
		pool.Close()
		return nil, err
	}

	curator := usecase.NewCurator(repo, engine, usecase.CuratorConfig{
		WindowHours:    cfg.Curation.WindowHours,
		DailyCount:     cfg.Curation.DailyCount,
		PerProvider:    cfg.Curation.PerProvider,
		CandidateLimit: cfg.Curation.CandidateLimit,
	}, baseLogger.With("component", "curator"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source: NewSource(cfg, baseLogger),
		Store:  repo,
		Logger: baseLogger.With("component", "pipeline"),
	})

	retention := usecase.NewRetention(repo, cfg.Retention.MaxAge, cfg.Retention.MaxRows,
		baseLogger.With("component", "retention"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}
	digest := usecase.NewDigestPublisher(curator, notifier, cfg.Curation.DailyCount,
		cfg.Curation.SimilarityThreshold, cfg.Scheduler.Location(), baseLogger.With("component", "digest"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pool:      pool,
		repo:      repo,
		curator:   curator,
		pipeline:  pipeline,
		retention: retention,
		digest:    digest,
	}, nil
}

// NewEngine builds the curation engine from configuration.
func NewEngine(cfg config.CurationConfig) (*curation.Engine, error) {
	memo, err := curation.NewMemo(cfg.MemoSize)
	if err != nil {
		return nil, fmt.Errorf("build memo: %w", err)
	}

	policy := curation.DefaultPolicy()
	if cfg.Policy.TopProviderCap > 0 {
		policy.TopProviderCap = cfg.Policy.TopProviderCap
	}
	if cfg.Policy.ProviderCap > 0 {
		policy.ProviderCap = cfg.Policy.ProviderCap
	}
	if cfg.Policy.RelaxedSlots > 0 {
		policy.RelaxedSlots = cfg.Policy.RelaxedSlots
	}
	if cfg.Policy.RelaxedThresholdDelta > 0 {
		policy.RelaxedThresholdDelta = cfg.Policy.RelaxedThresholdDelta
	}
	if cfg.Policy.MaxRun > 0 {
		policy.MaxRun = cfg.Policy.MaxRun
	}

	table := provider.DefaultTable().WithDefaultPriority(cfg.UnknownProviderPriority)
	return curation.NewEngine(table, curation.WithPolicy(policy), curation.WithMemo(memo)), nil
}

// NewSource registers the scraping strategies over one shared fetcher.
func NewSource(cfg config.Config, logger *slog.Logger) *parser.StrategySource {
	if logger == nil {
		logger = slog.Default()
	}
	fetcher := parser.NewFetcher(parser.FetcherOptions{
		Timeout:           cfg.Scraper.Timeout,
		Retries:           cfg.Scraper.Retries,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		Burst:             cfg.Scraper.Burst,
		UserAgent:         cfg.Scraper.UserAgent,
	})
	registry := scanner.NewRegistry(
		parser.NewHTMLScanner(fetcher),
		parser.NewFeedScanner(fetcher),
	)
	names := make([]string, 0, len(cfg.Sites))
	for _, site := range cfg.Sites {
		names = append(names, site.Scanner)
	}
	if missing := registry.Missing(names...); len(missing) > 0 {
		logger.Warn("sites reference unregistered scanners", "scanners", missing, "registered", registry.Names())
	}
	return parser.NewStrategySource(registry, cfg.Sites, cfg.Scraper.Concurrency, logger.With("component", "source"))
}

// Close releases every open connection.
func (a *Application) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis", "error", err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// Migrate creates the tables and indexes if they are missing.
func (a *Application) Migrate(ctx context.Context) error {
	return a.repo.EnsureSchema(ctx)
}

// Scrape runs a single scrape pass.
func (a *Application) Scrape(ctx context.Context) (domain.ScrapeReport, error) {
	return a.pipeline.Scrape(ctx)
}

// Cleanup runs a single retention pass.
func (a *Application) Cleanup(ctx context.Context) (domain.RetentionReport, error) {
	return a.retention.Run(ctx, time.Now())
}

// Digest publishes the daily digest once.
func (a *Application) Digest(ctx context.Context) (int, error) {
	return a.digest.Publish(ctx)
}

// Serve starts the scheduler and the HTTP API and blocks until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	client, err := quota.NewClient(ctx, a.cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	a.redis = client

	quotaSvc := usecase.NewQuotaService(quota.NewRedisStore(client), a.repo, a.cfg.Quota.DailyFreeViews,
		a.logger.With("component", "quota"))

	sched := a.newScheduler()
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	server := httpapi.New(httpapi.Deps{
		Curator:   a.curator,
		Quota:     quotaSvc,
		Pipeline:  a.pipeline,
		Retention: a.retention,
		Digest:    a.digest,
		Health:    a.repo,
		Logger:    a.logger.With("component", "http"),
	}, httpapi.Options{
		RequestTimeout:   a.cfg.Server.RequestTimeout,
		JobToken:         a.cfg.Server.JobToken,
		DefaultThreshold: a.cfg.Curation.SimilarityThreshold,
	})

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.Addr)
		errCh <- server.Start(a.cfg.Server.Addr)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Join(serveErr, shutdown(shutdownCtx, server), sched.Stop(shutdownCtx))
}

func shutdown(ctx context.Context, server *echo.Echo) error {
	if err := server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (a *Application) newScheduler() *usecase.Scheduler {
	if !a.cfg.Scheduler.Enabled {
		return usecase.NewScheduler(a.logger)
	}

	driver := func(name string, every time.Duration) ports.Scheduler {
		return scheduler.NewIntervalScheduler(scheduler.Options{
			Name:     name,
			Interval: every,
			Timeout:  a.cfg.Scheduler.JobTimeout,
			Logger:   a.logger.With("component", "scheduler", "job", name),
		})
	}

	jobs := []usecase.Job{
		{Name: "scrape", Driver: driver("scrape", a.cfg.Scheduler.ScrapeInterval), Run: usecase.ScrapeJob(a.pipeline)},
		{Name: "cleanup", Driver: driver("cleanup", a.cfg.Scheduler.CleanupInterval), Run: usecase.CleanupJob(a.retention)},
	}
	if a.cfg.Notifications.Telegram.Enabled() {
		jobs = append(jobs, usecase.Job{
			Name:   "digest",
			Driver: driver("digest", a.cfg.Scheduler.DigestInterval),
			Run:    usecase.DigestJob(a.digest),
		})
	}
	return usecase.NewScheduler(a.logger.With("component", "scheduler"), jobs...)
}
