// Package metrics holds the Prometheus collectors of the monitoring pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reelwatch"

// Metrics holds all pipeline collectors
type Metrics struct {
	ItemsFetched    *prometheus.CounterVec
	ItemsStale      *prometheus.CounterVec
	ItemsMuted      *prometheus.CounterVec
	UpdatesSaved    *prometheus.CounterVec
	Duplicates      *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	AccountFailures *prometheus.CounterVec
	BatchFailures   *prometheus.CounterVec
	BatchDuration   *prometheus.HistogramVec
	LoopsRunning    prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from gatherer
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ItemsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_fetched_total",
			Help:      "Raw items returned by platform clients",
		}, []string{"platform"}),
		ItemsStale: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_stale_total",
			Help:      "Raw items dropped for being older than the recency window",
		}, []string{"platform"}),
		ItemsMuted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_muted_total",
			Help:      "Raw items dropped by a muted term",
		}, []string{"platform"}),
		UpdatesSaved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_saved_total",
			Help:      "New updates stored",
		}, []string{"platform", "update_type"}),
		Duplicates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_total",
			Help:      "Items already on record",
		}, []string{"platform"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Relay attempts by result",
		}, []string{"platform", "result"}),
		AccountFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_failures_total",
			Help:      "Per-account fetch or ingest failures",
		}, []string{"platform"}),
		BatchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_failures_total",
			Help:      "Polling passes aborted before completion",
		}, []string{"platform"}),
		BatchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Time to poll every active account of a platform once",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"platform"}),
		LoopsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loops_running",
			Help:      "Platform polling loops currently running",
		}),
		gatherer: gatherer,
	}
}

// Handler returns the HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
