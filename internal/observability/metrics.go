package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline and the read API.
type Metrics struct {
	UnitsFetched     prometheus.Counter
	UnitsSkipped     *prometheus.CounterVec // labels: reason={duplicate,empty,no_candidates}
	UnitsFailed      prometheus.Counter
	MentionsCreated  prometheus.Counter
	LocationsCreated prometheus.Counter
	IngestRunning    prometheus.Gauge

	// Batch commit metrics.
	BatchSize         prometheus.Histogram
	IngestRunDuration prometheus.Histogram

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		UnitsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mentionmap",
			Name:      "units_fetched_total",
			Help:      "Total content units fetched from sources.",
		}),
		UnitsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentionmap",
			Name:      "units_skipped_total",
			Help:      "Content units skipped before persistence, by reason.",
		}, []string{"reason"}),
		UnitsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mentionmap",
			Name:      "units_failed_total",
			Help:      "Content units that failed processing.",
		}),
		MentionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mentionmap",
			Name:      "mentions_created_total",
			Help:      "Total mention rows written.",
		}),
		LocationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mentionmap",
			Name:      "locations_created_total",
			Help:      "Total new location rows written.",
		}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mentionmap",
			Name:      "ingest_running",
			Help:      "1 while an ingestion run is active, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mentionmap",
			Name:      "batch_size",
			Help:      "Number of content units committed per write batch.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),
		IngestRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mentionmap",
			Name:      "ingest_run_duration_seconds",
			Help:      "Duration of a complete fetch-extract-score-persist run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentionmap",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mentionmap",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mentionmap",
			Name:      "geocode_api_duration_seconds",
			Help:      "Nominatim API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mentionmap",
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.UnitsFetched,
		m.UnitsSkipped,
		m.UnitsFailed,
		m.MentionsCreated,
		m.LocationsCreated,
		m.IngestRunning,
		m.BatchSize,
		m.IngestRunDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		UnitsFetched:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "mentionmap", Name: "units_fetched_total"}),
		UnitsSkipped:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "mentionmap", Name: "units_skipped_total"}, []string{"reason"}),
		UnitsFailed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "mentionmap", Name: "units_failed_total"}),
		MentionsCreated:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "mentionmap", Name: "mentions_created_total"}),
		LocationsCreated:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "mentionmap", Name: "locations_created_total"}),
		IngestRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "mentionmap", Name: "ingest_running"}),
		BatchSize:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "mentionmap", Name: "batch_size"}),
		IngestRunDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "mentionmap", Name: "ingest_run_duration_seconds"}),
		GeocodeRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "mentionmap", Name: "geocode_requests_total"}, []string{"method", "outcome"}),
		GeocodeCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "mentionmap", Name: "geocode_cache_total"}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "mentionmap", Name: "geocode_api_duration_seconds"}, []string{"method"}),
		GeocodeEnabled:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "mentionmap", Name: "geocode_enabled"}),
	}
}
