package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fire_danger"

// Metrics holds the Prometheus counters, histograms, and gauges for the refresh loop.
type Metrics struct {
	Refreshes            *prometheus.CounterVec // labels: outcome={ok,unavailable,malformed,conversion_error,not_found}
	SchedulerRunning     prometheus.Gauge
	LastRefreshTimestamp prometheus.Gauge
	FallbackActive       prometheus.Gauge

	// Feed fetch metrics.
	FeedRequests        *prometheus.CounterVec   // labels: host, outcome={success,error,empty}
	FeedRequestDuration *prometheus.HistogramVec // labels: host

	// Publishing metrics.
	ReadingsPublished prometheus.Counter
	PublishErrors     prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Refreshes,
		m.SchedulerRunning,
		m.LastRefreshTimestamp,
		m.FallbackActive,
		m.FeedRequests,
		m.FeedRequestDuration,
		m.ReadingsPublished,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh cycles by outcome.",
		}, []string{"outcome"}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 when the refresh scheduler is active, 0 when shut down.",
		}),
		LastRefreshTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last completed refresh.",
		}),
		FallbackActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fallback_active",
			Help:      "1 while the feed source is serving its fallback jurisdiction.",
		}),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "Feed HTTP requests by host and outcome.",
		}, []string{"host", "outcome"}),
		FeedRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_request_duration_seconds",
			Help:      "Feed HTTP request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"host"}),
		ReadingsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_published_total",
			Help:      "Readings written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed reading publications.",
		}),
	}
}
