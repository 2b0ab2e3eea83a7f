// Package telemetry installs the OpenTelemetry trace pipeline that exports
// fetch spans over OTLP/HTTP.
package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ErrNoEndpoint is returned by Setup without an export endpoint.
var ErrNoEndpoint = errors.New("no trace endpoint configured")

// Config selects where spans are exported.
type Config struct {
	// Endpoint is the full OTLP/HTTP traces URL.
	Endpoint string
	Headers  map[string]string
}

// Setup builds a batching tracer provider exporting to cfg.Endpoint and
// installs it as the global provider. The caller must Shutdown the
// provider to flush pending spans.
func Setup(ctx context.Context, serviceName, version string, cfg Config) (*trace.TracerProvider, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNoEndpoint
	}

	r, err := newResource(serviceName, version)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(cfg.Endpoint),
		otlptracehttp.WithHeaders(cfg.Headers),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

func newResource(serviceName, version string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
}

// Shutdown flushes and stops tp within timeout.
func Shutdown(tp *trace.TracerProvider, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return tp.Shutdown(ctx)
}
