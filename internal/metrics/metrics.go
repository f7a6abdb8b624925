package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Symbol outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors for the batch pipeline. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	SymbolsTotal       *prometheus.CounterVec
	GroupDuration      prometheus.Histogram
	RunsTotal          *prometheus.CounterVec
	LastRunSymbols     *prometheus.GaugeVec
	LastRunTimestamp   prometheus.Gauge
	ProviderRequests   *prometheus.CounterVec
	ProviderDuration   *prometheus.HistogramVec
	CacheWritesTotal   *prometheus.CounterVec
	RefreshesRequested prometheus.Counter
}

var durationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}

// New creates and registers all collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		SymbolsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "earnings_batch",
				Subsystem: "symbols",
				Name:      "processed_total",
				Help:      "Symbols processed by outcome",
			},
			[]string{"outcome"},
		),
		GroupDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "earnings_batch",
				Subsystem: "groups",
				Name:      "duration_seconds",
				Help:      "Wall time to settle one concurrent group",
				Buckets:   durationBuckets,
			},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "earnings_batch",
				Subsystem: "runs",
				Name:      "total",
				Help:      "Batch runs by final status",
			},
			[]string{"status"},
		),
		LastRunSymbols: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "earnings_batch",
				Subsystem: "runs",
				Name:      "last_symbols",
				Help:      "Tallies of the most recent run",
			},
			[]string{"result"},
		),
		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "earnings_batch",
				Subsystem: "runs",
				Name:      "last_finished_timestamp_seconds",
				Help:      "Unix time the most recent run finished",
			},
		),
		ProviderRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "earnings_batch",
				Subsystem: "provider",
				Name:      "requests_total",
				Help:      "Market data requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "earnings_batch",
				Subsystem: "provider",
				Name:      "request_duration_seconds",
				Help:      "Market data request latency",
				Buckets:   durationBuckets,
			},
			[]string{"endpoint"},
		),
		CacheWritesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "earnings_batch",
				Subsystem: "cache",
				Name:      "writes_total",
				Help:      "Summary cache writes by status",
			},
			[]string{"status"},
		),
		RefreshesRequested: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "earnings_batch",
				Subsystem: "api",
				Name:      "refresh_requests_total",
				Help:      "On-demand refresh requests accepted by the API",
			},
		),
	}
}

// RecordSymbol counts one symbol outcome
func (m *Metrics) RecordSymbol(outcome string) {
	if m == nil {
		return
	}
	m.SymbolsTotal.WithLabelValues(outcome).Inc()
}

// ObserveGroup records how long a group took to settle
func (m *Metrics) ObserveGroup(d time.Duration) {
	if m == nil {
		return
	}
	m.GroupDuration.Observe(d.Seconds())
}

// RecordRun records the tallies of a finished run
func (m *Metrics) RecordRun(status string, processed, succeeded, failed int, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.LastRunSymbols.WithLabelValues("processed").Set(float64(processed))
	m.LastRunSymbols.WithLabelValues("succeeded").Set(float64(succeeded))
	m.LastRunSymbols.WithLabelValues("failed").Set(float64(failed))
	m.LastRunTimestamp.Set(float64(finishedAt.Unix()))
}

// RecordProviderRequest records one market data call
func (m *Metrics) RecordProviderRequest(endpoint, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(endpoint, status).Inc()
	m.ProviderDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordCacheWrite counts one cache write
func (m *Metrics) RecordCacheWrite(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CacheWritesTotal.WithLabelValues(status).Inc()
}

// RecordRefreshRequest counts one accepted refresh request
func (m *Metrics) RecordRefreshRequest() {
	if m == nil {
		return
	}
	m.RefreshesRequested.Inc()
}
