package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DocumentsTotal is the number of documents currently indexed.
	DocumentsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "findex_documents_total",
			Help: "Total number of documents currently indexed",
		},
	)

	// PhaseOneQueueSize is the number of documents awaiting content extraction.
	PhaseOneQueueSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "findex_phase_one_queue_size",
			Help: "Number of documents awaiting content extraction",
		},
	)

	// FailedTotal is the number of documents whose extraction has been marked failed.
	FailedTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "findex_failed_total",
			Help: "Number of documents marked failed during content extraction",
		},
	)

	// DatabaseSizeBytes is the size of the on-disk index file.
	DatabaseSizeBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "findex_database_size_bytes",
			Help: "Size in bytes of the on-disk index file",
		},
	)

	// CommitTotal counts write-transaction commits by result.
	CommitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "findex_commit_total",
			Help: "Total number of write transaction commits by result",
		},
		[]string{"result"},
	)

	// CommitDuration tracks write transaction commit latency.
	CommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "findex_commit_duration_seconds",
			Help:    "Time taken to commit a write transaction in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// QueryDuration tracks time spent draining an iterator tree.
	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "findex_query_duration_seconds",
			Help:    "Time taken to fully drain a query iterator in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// QueryResultsTotal counts result ids yielded by queries.
	QueryResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "findex_query_results_total",
			Help: "Total number of document ids yielded across all queries",
		},
	)
)

func init() {
	prometheus.MustRegister(
		DocumentsTotal,
		PhaseOneQueueSize,
		FailedTotal,
		DatabaseSizeBytes,
		CommitTotal,
		CommitDuration,
		QueryDuration,
		QueryResultsTotal,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
