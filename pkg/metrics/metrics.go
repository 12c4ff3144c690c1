// Package metrics holds the Prometheus collectors of the atlas service.
package metrics

import (
	"net/http"

	"github.com/hazyhaar/slp-atlas/pkg/diag"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_source_loads_total",
		Help: "Input loads by source and status",
	}, []string{"source", "status"})
	LoadDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atlas_source_load_duration_ms",
		Help:    "Input load duration in milliseconds",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
	}, []string{"source"})
	RecordsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "atlas_records_loaded",
		Help: "Survey records in the current session",
	})
	FeaturesLoaded = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "atlas_features_loaded",
		Help: "Boundary features in the current session by level",
	}, []string{"level"})
	AuditRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_audit_runs_total",
		Help: "Verification runs by result",
	}, []string{"result"})
	Violations = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "atlas_violations",
		Help: "Violations found by the last verification run, by check",
	}, []string{"check"})
	DiagnosticsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_diagnostics_total",
		Help: "Diagnostics reported, by check",
	}, []string{"check"})
	SourceUp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "atlas_source_up",
		Help: "1 when the last availability check of a source succeeded",
	}, []string{"source"})
)

func init() {
	prometheus.MustRegister(LoadsTotal)
	prometheus.MustRegister(LoadDurationMs)
	prometheus.MustRegister(RecordsLoaded)
	prometheus.MustRegister(FeaturesLoaded)
	prometheus.MustRegister(AuditRunsTotal)
	prometheus.MustRegister(Violations)
	prometheus.MustRegister(DiagnosticsTotal)
	prometheus.MustRegister(SourceUp)
}

// Sink counts every diagnostic under its check.
var Sink diag.Sink = diag.SinkFunc(func(e diag.Entry) {
	DiagnosticsTotal.WithLabelValues(e.Check).Inc()
})

// ObserveAudit records the outcome of one verification run. checks lists
// every check that ran so that passing checks report 0.
func ObserveAudit(checks []string, violations map[string]int) {
	result := "ok"
	for _, check := range checks {
		n := violations[check]
		if n > 0 {
			result = "violations"
		}
		Violations.WithLabelValues(check).Set(float64(n))
	}
	AuditRunsTotal.WithLabelValues(result).Inc()
}

// Handler exposes the registered collectors.
func Handler() http.Handler { return promhttp.Handler() }
