// Package tracing adds OpenTelemetry spans around readiness batches.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/imready-go/imready/pkg/ready"
)

// Default tracer name for readiness batches.
const defaultTracerName = "imready"

// Config configures the batch tracer.
type Config struct {
	// TracerName is the name of the tracer (default: "imready").
	TracerName string

	// AttributeExtractor extracts custom attributes for each batch.
	AttributeExtractor func(m *ready.Manager) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// Option configures the batch tracer.
type Option func(*Config)

// WithTracerName sets the tracer name.
func WithTracerName(name string) Option {
	return func(c *Config) {
		c.TracerName = name
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(m *ready.Manager) []attribute.KeyValue) Option {
	return func(c *Config) {
		c.AttributeExtractor = extractor
	}
}

func defaultConfig() Config {
	return Config{
		TracerName: defaultTracerName,
	}
}

// Tracer records one span per readiness batch.
//
// The span:
//   - Starts when Observe is called and ends at the batch ready milestone
//   - Records the pre-ready milestone as a span event
//   - Records each load failure as a span error
//   - Carries total, ready, and error counts as attributes
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before checking batches:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
type Tracer struct {
	config Config
}

// New creates a batch Tracer resolving from the global tracer provider.
func New(opts ...Option) *Tracer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)
	return &Tracer{config: config}
}

// Observe opens a span for the manager's next batch. Call it right before
// Check; the span ends when the batch reaches its ready milestone.
func (t *Tracer) Observe(ctx context.Context, m *ready.Manager) context.Context {
	attrs := []attribute.KeyValue{
		attribute.Int("imready.total_count", m.TotalCount()),
	}
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor(m)...)
	}

	spanCtx, span := t.config.tracer.Start(
		ctx,
		"imready.check",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(time.Now()),
	)

	failed := false

	m.OnError(func(e ready.ErrorEvent) {
		failed = true
		span.RecordError(fmt.Errorf("resource load failed: %v", e.Target))
		span.SetAttributes(
			attribute.Int("imready.error_count", e.ErrorCount),
			attribute.Int("imready.total_error_count", e.TotalErrorCount),
		)
	})
	m.OnPreReady(func(e ready.PreReadyEvent) {
		span.AddEvent("imready.pre_ready", trace.WithAttributes(
			attribute.Int("imready.ready_count", e.ReadyCount),
			attribute.Int("imready.total_count", e.TotalCount),
			attribute.Bool("imready.has_loading", e.HasLoading),
		))
	})
	m.OnReady(func(e ready.ReadyEvent) {
		span.SetAttributes(
			attribute.Int("imready.total_count", e.TotalCount),
			attribute.Int("imready.error_count", e.ErrorCount),
			attribute.Int("imready.total_error_count", e.TotalErrorCount),
		)
		if failed {
			span.SetStatus(codes.Error, "batch settled with failures")
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	})

	return spanCtx
}
