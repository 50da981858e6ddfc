package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the analysis pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FetchTotal       *prometheus.CounterVec // labels: result (ok, empty, error, cached)
	FetchDur         prometheus.Histogram
	RateResolutions  *prometheus.CounterVec // labels: kind, candidate, result
	SymbolsAnalyzed  *prometheus.CounterVec // labels: outcome (ok, skipped)
	BatchDur         prometheus.Histogram
	AlignmentDropped prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates and registers all collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ccl_gateway_fetch_total",
			Help: "Daily bar fetches by result.",
		}, []string{"result"}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ccl_gateway_fetch_duration_seconds",
			Help:    "Latency of provider fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		RateResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ccl_rate_resolution_total",
			Help: "Implied rate resolution attempts per candidate.",
		}, []string{"kind", "candidate", "result"}),
		SymbolsAnalyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ccl_symbols_analyzed_total",
			Help: "Symbols processed by batch analysis.",
		}, []string{"outcome"}),
		BatchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ccl_batch_duration_seconds",
			Help:    "Duration of a full batch analysis.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
		AlignmentDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ccl_alignment_dropped_days_total",
			Help: "Target days dropped because no rate could be filled.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.FetchTotal, m.FetchDur, m.RateResolutions, m.SymbolsAnalyzed, m.BatchDur, m.AlignmentDropped)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveFetch(result string, started time.Time) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(result).Inc()
	if result != "cached" {
		m.FetchDur.Observe(time.Since(started).Seconds())
	}
}

func (m *Metrics) ObserveRate(kind, candidate, result string) {
	if m == nil {
		return
	}
	m.RateResolutions.WithLabelValues(kind, candidate, result).Inc()
}

func (m *Metrics) ObserveSymbol(outcome string) {
	if m == nil {
		return
	}
	m.SymbolsAnalyzed.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveBatch(started time.Time) {
	if m == nil {
		return
	}
	m.BatchDur.Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AlignmentDropped.Add(float64(n))
}
