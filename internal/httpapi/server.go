// Package httpapi exposes the curated article lists, quota bookkeeping and
// job triggers over HTTP.
package httpapi

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"LajmeCurator/internal/curation"
	"LajmeCurator/internal/usecase"
)

// JobTokenHeader carries the shared secret for the job endpoints.
const JobTokenHeader = "X-Job-Token"

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps are the use cases served by the API. Nil members answer 503.
type Deps struct {
	Curator   *usecase.Curator
	Quota     *usecase.QuotaService
	Pipeline  *usecase.Pipeline
	Retention *usecase.Retention
	Digest    *usecase.DigestPublisher
	Health    HealthChecker
	Logger    *slog.Logger
	Now       func() time.Time
}

// Options tune request handling.
type Options struct {
	RequestTimeout   time.Duration
	JobToken         string
	DefaultThreshold float64
}

// New builds the echo instance with every route registered.
func New(deps Deps, opts Options) *echo.Echo {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if opts.DefaultThreshold <= 0 {
		opts.DefaultThreshold = curation.DefaultThreshold
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.Validator = newRequestValidator()

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/healthz" || path == "/metrics"
		},
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			deps.Logger.InfoContext(c.Request().Context(), "http request",
				"request_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	e.GET("/healthz", health(deps.Health))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.GET("/providers", listProviders(deps.Curator))

	articles := api.Group("/articles")
	articles.GET("/all", allArticles(deps.Curator, opts))
	articles.GET("/daily", dailyArticles(deps.Curator, opts))
	articles.GET("/by-provider", articlesByProvider(deps.Curator, opts))

	users := api.Group("/users/:id")
	users.GET("/quota", quotaStatus(deps.Quota, opts))
	users.POST("/views", recordView(deps.Quota, opts))
	users.GET("/subscription", getSubscription(deps.Quota, deps.Now, opts))
	users.PUT("/subscription", putSubscription(deps.Quota, deps.Now, opts))

	if opts.JobToken != "" {
		jobs := api.Group("/jobs", middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:" + JobTokenHeader,
			Validator: func(key string, _ echo.Context) (bool, error) {
				return subtle.ConstantTimeCompare([]byte(key), []byte(opts.JobToken)) == 1, nil
			},
		}))
		jobs.POST("/scrape", runScrape(deps.Pipeline))
		jobs.POST("/cleanup", runCleanup(deps.Retention, deps.Now))
		jobs.POST("/digest", runDigest(deps.Digest))
	}

	return e
}

func requestContext(c echo.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.Request().Context())
	}
	return context.WithTimeout(c.Request().Context(), timeout)
}

func unavailable(what string) error {
	return echo.NewHTTPError(http.StatusServiceUnavailable, what+" is not configured")
}

func health(checker HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		if checker != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := checker.Ping(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
