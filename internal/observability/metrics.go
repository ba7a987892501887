package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsBuilt     *prometheus.CounterVec
	Comparisons        *prometheus.CounterVec
	DifferencesFound   prometheus.Counter
	UnitLookupMisses   prometheus.Counter
	ExtractionDuration prometheus.Histogram
}

// NewMetrics registers the pipeline metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		DocumentsBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spec_documents_built_total",
				Help: "Specification documents built, by outcome",
			},
			[]string{"status"},
		),
		Comparisons: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spec_comparisons_total",
				Help: "Cross-model comparisons run, by outcome",
			},
			[]string{"status"},
		),
		DifferencesFound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spec_differences_total",
				Help: "Differences reported across all comparisons",
			},
		),
		UnitLookupMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "spec_unit_lookup_misses_total",
				Help: "Raw unit strings with no canonical match",
			},
		),
		ExtractionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spec_extraction_duration_seconds",
				Help:    "Time spent extracting and building one document",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	m.registry.MustRegister(
		m.DocumentsBuilt,
		m.Comparisons,
		m.DifferencesFound,
		m.UnitLookupMisses,
		m.ExtractionDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// DocumentBuilt counts one build attempt.
func (m *Metrics) DocumentBuilt(status string, seconds float64) {
	if m == nil {
		return
	}
	m.DocumentsBuilt.WithLabelValues(status).Inc()
	m.ExtractionDuration.Observe(seconds)
}

// ComparisonRun counts one comparison and the differences it reported.
func (m *Metrics) ComparisonRun(status string, differences int) {
	if m == nil {
		return
	}
	m.Comparisons.WithLabelValues(status).Inc()
	m.DifferencesFound.Add(float64(differences))
}

// UnitMiss counts one unknown unit spelling.
func (m *Metrics) UnitMiss() {
	if m == nil {
		return
	}
	m.UnitLookupMisses.Inc()
}
