package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the query service and the
// batch linker.
type Metrics struct {
	// Telemetry.
	FetchResults  *prometheus.CounterVec // labels: status={ok,not_found,malformed,transport_error}
	FetchDuration prometheus.Histogram

	// Query path.
	Reports       *prometheus.CounterVec // labels: outcome={ok,not_found,unavailable}
	ScoreObserved prometheus.Histogram

	// Registry.
	RegistryLocations prometheus.Gauge
	RegistryReloads   *prometheus.CounterVec // labels: outcome={swapped,unchanged,error}
	RegistryDegraded  prometheus.Gauge

	// Batch linker.
	LinkRuns          *prometheus.CounterVec // labels: outcome={published,rejected,error}
	LinkIndeterminate prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surf_report",
			Name:      "telemetry_fetch_total",
			Help:      "Station telemetry fetches by result status.",
		}, []string{"status"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "surf_report",
			Name:      "telemetry_fetch_duration_seconds",
			Help:      "Duration of a single station telemetry fetch.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surf_report",
			Name:      "live_reports_total",
			Help:      "Live report requests by outcome.",
		}, []string{"outcome"}),
		ScoreObserved: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "surf_report",
			Name:      "score",
			Help:      "Distribution of computed surf scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		RegistryLocations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "surf_report",
			Name:      "registry_locations",
			Help:      "Locations in the active registry snapshot.",
		}),
		RegistryReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surf_report",
			Name:      "registry_reloads_total",
			Help:      "Registry reload checks by outcome.",
		}, []string{"outcome"}),
		RegistryDegraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "surf_report",
			Name:      "registry_degraded",
			Help:      "1 when serving an empty registry because loading failed.",
		}),
		LinkRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "surf_report",
			Name:      "link_runs_total",
			Help:      "Batch link runs by outcome.",
		}, []string{"outcome"}),
		LinkIndeterminate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "surf_report",
			Name:      "link_indeterminate_locations",
			Help:      "Locations without a coastline bearing after the last link run.",
		}),
	}
}

// NewMetrics creates the metrics and registers them with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchResults,
		m.FetchDuration,
		m.Reports,
		m.ScoreObserved,
		m.RegistryLocations,
		m.RegistryReloads,
		m.RegistryDegraded,
		m.LinkRuns,
		m.LinkIndeterminate,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
