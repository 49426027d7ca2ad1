// Package metrics provides the centralized Prometheus metrics registry
// for the sync service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	APIRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "racing_sync",
		Name:      "api_requests_total",
		Help:      "Total number of outbound API requests, including retries",
	})
	APIErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "racing_sync",
		Name:      "api_errors_total",
		Help:      "Total number of failed API requests by endpoint and reason",
	}, []string{"endpoint", "reason"})
	RowsUpsertedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "racing_sync",
		Name:      "rows_upserted_total",
		Help:      "Total number of rows upserted by table",
	}, []string{"table"})
	BatchesFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "racing_sync",
		Name:      "batches_failed_total",
		Help:      "Total number of write batches skipped after retry",
	}, []string{"table"})
	HorsesEnrichedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "racing_sync",
		Name:      "horses_enriched_total",
		Help:      "Total number of horses enriched via the pro endpoint",
	})
	ChunksCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "racing_sync",
		Name:      "chunks_completed_total",
		Help:      "Total number of backfill chunks completed",
	})
)

// Gauge metrics
var (
	BackfillProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "racing_sync",
		Name:      "backfill_progress",
		Help:      "Backfill progress as completed chunks over total chunks",
	})
	LastSyncTimestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "racing_sync",
		Name:      "last_sync_timestamp_seconds",
		Help:      "Unix timestamp of the last successful run by mode",
	}, []string{"mode"})
)

// Histogram metrics
var (
	APIRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "racing_sync",
		Name:      "api_request_duration_seconds",
		Help:      "Duration of API requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
	ChunkDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "racing_sync",
		Name:      "chunk_duration_seconds",
		Help:      "Duration of backfill chunk processing in seconds",
		Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200},
	})
	StatisticsJobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "racing_sync",
		Name:      "statistics_job_duration_seconds",
		Help:      "Duration of statistics calculator jobs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600},
	}, []string{"job"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(APIRequestsTotal)
		registry.MustRegister(APIErrorsTotal)
		registry.MustRegister(RowsUpsertedTotal)
		registry.MustRegister(BatchesFailedTotal)
		registry.MustRegister(HorsesEnrichedTotal)
		registry.MustRegister(ChunksCompletedTotal)

		registry.MustRegister(BackfillProgress)
		registry.MustRegister(LastSyncTimestamp)

		registry.MustRegister(APIRequestDuration)
		registry.MustRegister(ChunkDuration)
		registry.MustRegister(StatisticsJobDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}
