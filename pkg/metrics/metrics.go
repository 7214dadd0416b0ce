// Package metrics exposes Prometheus instrumentation for readiness batches.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/imready-go/imready/pkg/ready"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "imready").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for batch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the batch duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "imready",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records batch progress from Manager events.
//
// Metrics collected:
//   - imready_batches_total: Counter of settled batches
//   - imready_resources_total: Counter of checked resources by outcome
//   - imready_errors_total: Counter of load failure signals
//   - imready_batch_duration_seconds: Histogram of check-to-ready duration
type Collector struct {
	batchesTotal   prometheus.Counter
	resourcesTotal *prometheus.CounterVec
	errorsTotal    prometheus.Counter
	batchDuration  prometheus.Histogram
}

// New creates a Collector and registers its metrics.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		batchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batches_total",
			Help:        "Total number of settled readiness batches",
			ConstLabels: config.ConstLabels,
		}),

		resourcesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resources_total",
			Help:        "Total number of checked resources by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		errorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of load failure signals, including repeats",
			ConstLabels: config.ConstLabels,
		}),

		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "batch_duration_seconds",
			Help:        "Time from Observe to the batch ready milestone",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// Observe subscribes the collector to a Manager. Call it right after the
// Manager's Check so the duration histogram measures the whole batch.
func (c *Collector) Observe(m *ready.Manager) {
	start := time.Now()

	m.OnError(func(ready.ErrorEvent) {
		c.errorsTotal.Inc()
	})
	m.OnReadyElement(func(e ready.ReadyElementEvent) {
		outcome := "loaded"
		if e.HasError {
			outcome = "failed"
		}
		c.resourcesTotal.WithLabelValues(outcome).Inc()
	})
	m.OnReady(func(e ready.ReadyEvent) {
		c.batchesTotal.Inc()
		c.batchDuration.Observe(time.Since(start).Seconds())
	})
}
