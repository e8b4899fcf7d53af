package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"reelscript/internal/config"
	"reelscript/internal/logging"
)

func TestSetupNoneIsNoop(t *testing.T) {
	shutdown, err := setup(context.Background(), config.Telemetry{Exporter: config.ExporterNone}, "test", nil, logging.NewNop())
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}

func TestStdoutExporterWritesSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	var buf bytes.Buffer
	tc := config.Telemetry{Exporter: config.ExporterStdout, ServiceName: "reelscript-test", SampleRatio: 1}
	shutdown, err := setup(context.Background(), tc, "test", &buf, logging.NewNop())
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	_, span := Start(context.Background(), "pipeline.item", attribute.String("reel_id", "abc"))
	End(span, errors.New("boom"))
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "pipeline.item") || !strings.Contains(out, "boom") {
		t.Fatalf("expected span in exporter output, got %q", out)
	}
}
