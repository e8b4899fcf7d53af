// Package telemetry configures OpenTelemetry tracing for the scrape pipeline
// and the API. With the "none" exporter the global no-op provider stays in
// place and spans cost nothing.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"go.opentelemetry.io/otel/trace"

	"reelscript/internal/config"
	"reelscript/internal/logging"
)

const instrumentationName = "reelscript"

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup installs the configured tracer provider globally.
func Setup(ctx context.Context, cfg *config.Config, version string, logger *slog.Logger) (Shutdown, error) {
	return setup(ctx, cfg.Telemetry, version, os.Stdout, logger)
}

func setup(ctx context.Context, tc config.Telemetry, version string, stdout io.Writer, logger *slog.Logger) (Shutdown, error) {
	if tc.Exporter == config.ExporterNone || tc.Exporter == "" {
		return noopShutdown, nil
	}
	exporter, err := buildExporter(ctx, tc, stdout)
	if err != nil {
		return noopShutdown, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(tc.ServiceName),
		semconv.ServiceVersionKey.String(version),
	))
	if err != nil {
		logging.WarnWithContext(logger, "telemetry resource incomplete", "telemetry_resource",
			logging.Error(err),
			logging.String(logging.FieldImpact, "spans carry partial resource attributes"),
		)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(tc.SampleRatio))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	if logger != nil {
		logger.Info("tracing enabled",
			logging.String("exporter", tc.Exporter),
			logging.Float64("sample_ratio", tc.SampleRatio),
		)
	}
	return tp.Shutdown, nil
}

func buildExporter(ctx context.Context, tc config.Telemetry, stdout io.Writer) (sdktrace.SpanExporter, error) {
	if tc.Exporter == config.ExporterStdout {
		return stdouttrace.New(stdouttrace.WithWriter(stdout))
	}
	endpoint := strings.TrimSpace(tc.Endpoint)
	var opts []otlptracehttp.Option
	if strings.Contains(endpoint, "://") {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	} else {
		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
		if host := strings.Split(endpoint, ":")[0]; host == "localhost" || host == "127.0.0.1" {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
	}
	return otlptracehttp.New(ctx, opts...)
}

// Start opens a span on the global tracer.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
