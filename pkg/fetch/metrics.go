package fetch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded by Metrics.
const (
	resultHit    = "hit"
	resultJoined = "joined"
	resultMiss   = "miss"
	resultRetry  = "retry"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "formmessages").
	Namespace string

	// Subsystem is the metrics subsystem (default: "fetch").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for fetch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "formmessages",
		Subsystem: "fetch",
		Buckets:   prometheus.DefBuckets,
	}
}

// Metrics holds the coordinator's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	requests       *prometheus.CounterVec
	fetches        *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	waitersDropped prometheus.Counter
}

// NewMetrics registers the coordinator collectors with registry. A nil
// registry falls back to prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer, options ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range options {
		if opt != nil {
			opt(&config)
		}
	}
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_total",
			Help:        "Template requests by cache result (hit, joined, miss, retry)",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fetches_total",
			Help:        "Underlying template fetches by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "fetch_duration_seconds",
			Help:        "Template fetch duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		waitersDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "waiters_dropped_total",
			Help:        "Waiters that cancelled before their fetch settled",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) recordRequest(result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(result).Inc()
}

func (m *Metrics) recordFetch(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.fetches.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) recordDropped() {
	if m == nil {
		return
	}
	m.waitersDropped.Inc()
}
