package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.ServiceName != "vigil" {
		t.Errorf("ServiceName = %q, want vigil", cfg.ServiceName)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should be disabled by default")
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("SampleRate = %v, want 1.0", cfg.Tracing.SampleRate)
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	for _, opt := range []Option{
		WithServiceName("svc"),
		WithServiceVersion("1.2.3"),
		WithEnvironment("staging"),
		WithTracing(ExporterOTLP, "collector:4317"),
		WithTracingInsecure(),
		WithSampleRate(0.25),
	} {
		opt(&cfg)
	}

	if cfg.ServiceName != "svc" || cfg.ServiceVersion != "1.2.3" || cfg.Environment != "staging" {
		t.Errorf("unexpected service identity: %+v", cfg)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Exporter != ExporterOTLP {
		t.Errorf("Tracing = %+v, want enabled otlp", cfg.Tracing)
	}
	if cfg.Tracing.Endpoint != "collector:4317" {
		t.Errorf("Endpoint = %q, want collector:4317", cfg.Tracing.Endpoint)
	}
	if !cfg.Tracing.Insecure {
		t.Error("Insecure = false, want true")
	}
	if cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("SampleRate = %v, want 0.25", cfg.Tracing.SampleRate)
	}
}

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	p, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Enabled() {
		t.Error("Enabled() = true, want false")
	}

	_, span := p.Tracer().Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("noop tracer produced a valid span context")
	}
	span.End()

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_UnknownExporter(t *testing.T) {
	t.Parallel()

	_, err := New(WithTracing("zipkin", ""))
	if !errors.Is(err, ErrUnknownExporter) {
		t.Errorf("New() error = %v, want ErrUnknownExporter", err)
	}
}

// Installs a global tracer provider, so not parallel.
func TestNew_StdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(WithStdoutTracing(), WithTraceWriter(&buf))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !p.Enabled() {
		t.Fatal("Enabled() = false, want true")
	}

	_, span := p.Tracer().Start(context.Background(), "vigil.handle")
	EndSpan(span, errors.New("boom"))

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "vigil.handle") {
		t.Errorf("exported output missing span name: %s", out)
	}
	if !strings.Contains(out, "boom") {
		t.Errorf("exported output missing recorded error: %s", out)
	}
}

func TestNoopProvider(t *testing.T) {
	t.Parallel()

	p := NewNoopProvider()
	ctx, span := p.Tracer().Start(context.Background(), "x")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	EndSpan(span, nil)
	if p.Enabled() {
		t.Error("noop provider reports enabled")
	}
}
