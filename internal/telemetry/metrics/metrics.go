// Package metrics exposes pipeline counters and timings for Prometheus
// scraping via the ops server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every pipeline metric on a private Prometheus registry so
// the ops server serves only what the pipeline records.
type Registry struct {
	reg *prometheus.Registry

	CycleDuration      prometheus.Histogram
	CyclesTotal        *prometheus.CounterVec
	CandidatesByFeed   *prometheus.CounterVec
	EnrichmentOutcomes *prometheus.CounterVec
	GatePasses         *prometheus.CounterVec
	GateDrops          prometheus.Counter
	AlertsSent         *prometheus.CounterVec
	AlertsSuppressed   prometheus.Counter
	DispatchFailures   *prometheus.CounterVec
	ActiveRegime       prometheus.Gauge
}

// NewRegistry creates and registers all pipeline metrics.
func NewRegistry() *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}

	r.CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tokenradar_cycle_duration_seconds",
		Help:    "Wall time of one full detection cycle",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
	r.CyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenradar_cycles_total",
		Help: "Detection cycles by result",
	}, []string{"result"})
	r.CandidatesByFeed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenradar_candidates_total",
		Help: "Candidates surfaced per discovery source",
	}, []string{"source"})
	r.EnrichmentOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenradar_enrichment_total",
		Help: "Enrichment calls by outcome kind",
	}, []string{"outcome"})
	r.GatePasses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenradar_gate_passes_total",
		Help: "Candidates passing a gate, by gate name",
	}, []string{"gate"})
	r.GateDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tokenradar_gate_drops_total",
		Help: "Candidates failing every gate",
	})
	r.AlertsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenradar_alerts_sent_total",
		Help: "Alerts dispatched, by discovery source",
	}, []string{"source"})
	r.AlertsSuppressed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tokenradar_alerts_suppressed_total",
		Help: "Alerts denied by the cooldown window",
	})
	r.DispatchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokenradar_dispatch_failures_total",
		Help: "Delivery failures by destination",
	}, []string{"destination"})
	r.ActiveRegime = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tokenradar_active_regime",
		Help: "Current market regime (0 unknown, 1 dead, 2 choppy, 3 momentum, 4 mania)",
	})

	r.reg.MustRegister(
		r.CycleDuration, r.CyclesTotal, r.CandidatesByFeed, r.EnrichmentOutcomes,
		r.GatePasses, r.GateDrops, r.AlertsSent, r.AlertsSuppressed,
		r.DispatchFailures, r.ActiveRegime,
	)
	return r
}

// Gatherer exposes the private registry for the ops HTTP handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// ObserveCycle records one cycle's duration and result label.
func (r *Registry) ObserveCycle(d time.Duration, result string) {
	r.CycleDuration.Observe(d.Seconds())
	r.CyclesTotal.WithLabelValues(result).Inc()
}
