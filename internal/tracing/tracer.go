// Package tracing provides OpenTelemetry integration for the token server.
// Spans are purely observational (spec §5): no store operation suspends
// mid-critical-section on their account, and a tracing failure never alters
// a request's outcome.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

// Provider manages the process-wide OpenTelemetry tracer.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// Config holds configuration for the stdout trace exporter.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
}

// NewProvider creates a tracer provider exporting spans to stdout, suitable
// for a single-process auxiliary service with no external collector.
func NewProvider(cfg Config) (*Provider, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("tracing: create stdout exporter: %w", err)
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: build resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)

	return &Provider{provider: provider, tracer: provider.Tracer(cfg.ServiceName)}, nil
}

// StartSpan starts a span for one of the Span* operation names below.
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(time.Now()),
	)
}

// Shutdown flushes and stops the tracer provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.provider.Shutdown(ctx)
}

// Span names, one per store operation (spec §4.1, §4.2).
const (
	SpanCreate = "tokstore.create"
	SpanRotate = "tokstore.rotate"
	SpanRemove = "tokstore.remove"
	SpanPurge  = "tokstore.purge"
	SpanDump   = "tokstore.dump"
)

// Attribute keys attached to spans.
var (
	AttributeResult    = attribute.Key("tokserver.result")
	AttributeRemoved   = attribute.Key("tokserver.removed_count")
	AttributeHasMeta   = attribute.Key("tokserver.has_meta_patch")
	AttributeRequestID = attribute.Key("tokserver.request_id")
)
