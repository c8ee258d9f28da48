// Package metrics provides Prometheus metrics for lajmecurator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lajme"

var (
	// ArticlesScraped counts articles returned by scanners per provider.
	ArticlesScraped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_scraped_total",
			Help:      "Total number of articles returned by site scanners",
		},
		[]string{"provider"},
	)

	// ArticlesInserted counts rows written by the scrape pipeline.
	ArticlesInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_inserted_total",
			Help:      "Total number of new articles stored",
		},
	)

	// ScrapeFailures counts failed site scans.
	ScrapeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_failures_total",
			Help:      "Total number of failed site scans",
		},
		[]string{"site"},
	)

	// SelectionDuration measures curation passes.
	SelectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "selection_duration_seconds",
			Help:      "Duration of deduplication and selection passes in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// SelectionSize observes how many articles a pass returned.
	SelectionSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "selection_size",
			Help:      "Distribution of selection output sizes",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"mode"},
	)

	// StarvationFallbacks counts passes that fell back to the unfiltered pool.
	StarvationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_fallbacks_total",
			Help:      "Total number of selections served unfiltered because filtering emptied the pool",
		},
		[]string{"mode"},
	)

	// QuotaRefusals counts views refused for exhausted quota.
	QuotaRefusals = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_refusals_total",
			Help:      "Total number of article views refused by the daily quota",
		},
	)

	// RetentionDeleted counts rows removed by the cleanup job.
	RetentionDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_deleted_total",
			Help:      "Total number of rows deleted by retention",
		},
		[]string{"reason"},
	)

	// JobRuns counts job executions by outcome.
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Total number of job executions",
		},
		[]string{"job", "status"},
	)
)

// RecordScrape records one scrape pass.
func RecordScrape(perProvider map[string]int, inserted int, failedSites []string) {
	for p, n := range perProvider {
		ArticlesScraped.WithLabelValues(p).Add(float64(n))
	}
	ArticlesInserted.Add(float64(inserted))
	for _, site := range failedSites {
		ScrapeFailures.WithLabelValues(site).Inc()
	}
}

// RecordSelection records a curation pass.
func RecordSelection(mode string, size int, duration float64, fellBack bool) {
	SelectionDuration.WithLabelValues(mode).Observe(duration)
	SelectionSize.WithLabelValues(mode).Observe(float64(size))
	if fellBack {
		StarvationFallbacks.WithLabelValues(mode).Inc()
	}
}

// RecordRetention records a cleanup pass.
func RecordRetention(expired, overflow int64) {
	RetentionDeleted.WithLabelValues("expired").Add(float64(expired))
	RetentionDeleted.WithLabelValues("overflow").Add(float64(overflow))
}

// RecordQuotaRefusal records a refused view.
func RecordQuotaRefusal() {
	QuotaRefusals.Inc()
}

// RecordJob records a job execution.
func RecordJob(job string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	JobRuns.WithLabelValues(job, status).Inc()
}
