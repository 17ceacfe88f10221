package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ArticleRelay/internal/domain"
)

const namespace = "articlerelay"

// Run status labels.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Metrics holds the relay counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// EntriesFetched counts feed entries returned by successful polls.
	EntriesFetched prometheus.Counter

	// EntriesSkipped counts entries already present in the ledger.
	EntriesSkipped prometheus.Counter

	// ArticlesPersisted counts records written to the ledger.
	ArticlesPersisted prometheus.Counter

	// ArticlesPublished counts announcements delivered to the channel.
	ArticlesPublished prometheus.Counter

	// ItemFailures counts per-item degradations and failures, labeled by kind.
	ItemFailures *prometheus.CounterVec

	// Runs counts job invocations, labeled by job and status.
	Runs *prometheus.CounterVec

	// RunDuration observes job duration in seconds, labeled by job.
	RunDuration *prometheus.HistogramVec
}

// NewMetrics registers all collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EntriesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_fetched_total",
			Help:      "Total number of feed entries fetched",
		}),
		EntriesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_skipped_total",
			Help:      "Total number of feed entries skipped as already processed",
		}),
		ArticlesPersisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_persisted_total",
			Help:      "Total number of articles written to the ledger",
		}),
		ArticlesPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_published_total",
			Help:      "Total number of articles announced in the channel",
		}),
		ItemFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_failures_total",
			Help:      "Total number of per-item failures by kind",
		}, []string{"kind"}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of job runs by job and status",
		}, []string{"job", "status"}),
		RunDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of job runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"job"}),
	}
}

// RecordFetched adds n fetched entries.
func (m *Metrics) RecordFetched(n int) {
	if m == nil {
		return
	}
	m.EntriesFetched.Add(float64(n))
}

// RecordSkipped counts one duplicate entry.
func (m *Metrics) RecordSkipped() {
	if m == nil {
		return
	}
	m.EntriesSkipped.Inc()
}

// RecordPersisted counts one ledger write.
func (m *Metrics) RecordPersisted() {
	if m == nil {
		return
	}
	m.ArticlesPersisted.Inc()
}

// RecordPublished counts one delivered announcement.
func (m *Metrics) RecordPublished() {
	if m == nil {
		return
	}
	m.ArticlesPublished.Inc()
}

// RecordFailure counts one failed outcome. Successful outcomes are ignored.
func (m *Metrics) RecordFailure(o domain.Outcome) {
	if m == nil || o.OK() {
		return
	}
	m.ItemFailures.WithLabelValues(string(o.Kind)).Inc()
}

// RecordRun counts a finished job run and observes its duration.
func (m *Metrics) RecordRun(job string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	m.Runs.WithLabelValues(job, status).Inc()
	m.RunDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}
