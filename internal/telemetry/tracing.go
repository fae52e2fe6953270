package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ErrUnknownExporter is returned for an unsupported trace exporter name.
var ErrUnknownExporter = errors.New("unknown trace exporter")

// InstrumentationName is the tracer name spans are recorded under.
const InstrumentationName = "github.com/vk/mortar"

// InitTracing returns a tracer provider for exporter and a function that
// flushes and stops it. "none" yields a no-op provider; "stdout" writes
// spans as JSON to w.
func InitTracing(ctx context.Context, exporter, version string, w io.Writer) (trace.TracerProvider, func(context.Context) error, error) {
	noShutdown := func(context.Context) error { return nil }

	switch exporter {
	case "", "none":
		return noop.NewTracerProvider(), noShutdown, nil
	case "stdout":
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownExporter, exporter)
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("create exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", "mortar"),
		attribute.String("service.version", version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	return tp, tp.Shutdown, nil
}
