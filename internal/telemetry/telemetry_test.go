package telemetry

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestSetupNone(t *testing.T) {
	for _, exporter := range []string{"", ExporterNone} {
		shutdown, err := Setup(context.Background(), Config{Exporter: exporter})
		if err != nil {
			t.Fatalf("Setup(%q): %v", exporter, err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	}
}

func TestSetupUnknownExporter(t *testing.T) {
	if _, err := Setup(context.Background(), Config{Exporter: "jaeger"}); err == nil {
		t.Error("expected error for unknown exporter")
	}
}

func TestSetupStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), Config{Exporter: ExporterStdout, Writer: &buf})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "collector.Submit")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "collector.Submit") {
		t.Errorf("expected span in output, got %q", buf.String())
	}
}
