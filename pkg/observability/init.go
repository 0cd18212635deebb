package observability

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName  string
	SamplingRate float64
	// Writer receives pretty-printed spans; nil means stdout
	Writer io.Writer
}

// InitTracing installs a global tracer provider that exports spans through
// the stdout exporter. The returned function flushes and shuts it down.
func InitTracing(config TracingConfig) (func(context.Context) error, error) {
	if config.ServiceName == "" {
		config.ServiceName = "rowmap"
	}

	opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
	if config.Writer != nil {
		opts = append(opts, stdouttrace.WithWriter(config.Writer))
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	// Configure sampling
	var sampler sdktrace.Sampler
	if config.SamplingRate <= 0 {
		sampler = sdktrace.NeverSample()
	} else if config.SamplingRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", config.ServiceName))),
		sdktrace.WithSampler(sampler),
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
