package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imready-go/imready/pkg/loaders"
	"github.com/imready-go/imready/pkg/metrics"
	"github.com/imready-go/imready/pkg/ready"
	"github.com/imready-go/imready/pkg/tracing"
)

// Config configures the readiness server.
type Config struct {
	// Address is the listen address (default: ":8080").
	Address string

	// Prefix is the marker attribute prefix applied to scanned documents
	// when a request does not name its own (default: ready.DefaultPrefix).
	Prefix string

	// Tags are the element tags scanned for loadable resources
	// (default: img, video).
	Tags []string

	// CheckTimeout bounds each batch check (default: 30s).
	CheckTimeout time.Duration

	// MaxBodySize limits the request body in bytes (default: 10 MiB).
	MaxBodySize int64

	// HTTPClient fetches remote resources (default: http.DefaultClient).
	HTTPClient *http.Client

	// S3 serves s3 resources when set.
	S3 loaders.S3API

	// Metrics observes every batch when set.
	Metrics *metrics.Collector

	// Tracer traces every batch when set.
	Tracer *tracing.Tracer

	// Gatherer backs the /metrics endpoint
	// (default: prometheus.DefaultGatherer).
	Gatherer prometheus.Gatherer

	// WebSocket upgrade settings.
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool

	// HTTP server timeouts.
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:           ":8080",
		Prefix:            ready.DefaultPrefix,
		Tags:              []string{"img", "video"},
		CheckTimeout:      30 * time.Second,
		MaxBodySize:       10 << 20,
		HTTPClient:        http.DefaultClient,
		Gatherer:          prometheus.DefaultGatherer,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// applyDefaults fills in defaults for any unset fields.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Address == "" {
		c.Address = defaults.Address
	}
	if c.Prefix == "" {
		c.Prefix = defaults.Prefix
	}
	if len(c.Tags) == 0 {
		c.Tags = defaults.Tags
	}
	if c.CheckTimeout == 0 {
		c.CheckTimeout = defaults.CheckTimeout
	}
	if c.MaxBodySize == 0 {
		c.MaxBodySize = defaults.MaxBodySize
	}
	if c.HTTPClient == nil {
		c.HTTPClient = defaults.HTTPClient
	}
	if c.Gatherer == nil {
		c.Gatherer = defaults.Gatherer
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = defaults.ReadBufferSize
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = defaults.WriteBufferSize
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = defaults.ReadTimeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = defaults.IdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaults.ShutdownTimeout
	}
}
