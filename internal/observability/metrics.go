package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "vetbcn"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// importer and the query API.
type Metrics struct {
	// Import run metrics.
	SourcePagesFetched  prometheus.Counter
	SourceRowsFetched   prometheus.Counter
	ClinicsImported     prometheus.Counter
	ClinicsSkipped      *prometheus.CounterVec // labels: reason={closed,not_veterinary}
	ClinicsPublished    prometheus.Counter
	ImportRunning       prometheus.Gauge
	ImportDuration      prometheus.Histogram
	ImportLastSuccessTS prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	// Routing metrics.
	RouteRequests    *prometheus.CounterVec // labels: outcome={success,error,no_route}
	RouteCache       *prometheus.CounterVec // labels: result={hit,miss}
	RouteAPIDuration prometheus.Histogram

	// Store cache metrics.
	StoreCache *prometheus.CounterVec // labels: op, result={hit,miss,error}

	// HTTP API metrics.
	HTTPRequests *prometheus.CounterVec   // labels: route, status
	HTTPDuration *prometheus.HistogramVec // labels: route
}

func newMetrics() *Metrics {
	return &Metrics{
		SourcePagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_pages_fetched_total",
			Help:      "Open-data pages fetched from the CKAN datastore.",
		}),
		SourceRowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rows_fetched_total",
			Help:      "Source rows fetched from the CKAN datastore.",
		}),
		ClinicsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clinics_imported_total",
			Help:      "Clinics written to the store by the importer.",
		}),
		ClinicsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clinics_skipped_total",
			Help:      "Establishments left out of the clinic set, by reason.",
		}, []string{"reason"}),
		ClinicsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clinics_published_total",
			Help:      "Clinics published to the catalog topic.",
		}),
		ImportRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "import_running",
			Help:      "1 while an import run is in progress, 0 otherwise.",
		}),
		ImportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Duration of a complete import run.",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		ImportLastSuccessTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "import_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful import run.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_requests_total",
			Help:      "OSRM route requests by outcome.",
		}, []string{"outcome"}),
		RouteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_cache_total",
			Help:      "Route cache lookups by result.",
		}, []string{"result"}),
		RouteAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_api_duration_seconds",
			Help:      "OSRM request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StoreCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_cache_total",
			Help:      "Redis store cache lookups by operation and result.",
		}, []string{"op", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route pattern and status code.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SourcePagesFetched,
		m.SourceRowsFetched,
		m.ClinicsImported,
		m.ClinicsSkipped,
		m.ClinicsPublished,
		m.ImportRunning,
		m.ImportDuration,
		m.ImportLastSuccessTS,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.RouteRequests,
		m.RouteCache,
		m.RouteAPIDuration,
		m.StoreCache,
		m.HTTPRequests,
		m.HTTPDuration,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}

// Push sends the default registry to a Prometheus Pushgateway under job.
// Batch runs such as the importer exit before a scrape can happen.
func Push(ctx context.Context, gatewayURL, job string) error {
	err := push.New(gatewayURL, job).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
