package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/pipestudio/config"
)

func TestDefaultConfigs(t *testing.T) {
	tc := DefaultTracerConfig("pipestudio")
	if tc.ServiceName != "pipestudio" || tc.Endpoint != "localhost:4318" || tc.SampleRate != 1.0 || !tc.Insecure {
		t.Errorf("unexpected tracer defaults %+v", tc)
	}
	mc := DefaultMeterConfig("pipestudio")
	if mc.Interval != 15*time.Second {
		t.Errorf("expected 15s interval, got %v", mc.Interval)
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource(Resource{ServiceName: "pipestudio", ServiceVersion: "1.2.3", Environment: "test"})
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	found := map[string]string{}
	for _, kv := range res.Attributes() {
		found[string(kv.Key)] = kv.Value.Emit()
	}
	if found["service.name"] != "pipestudio" || found["service.version"] != "1.2.3" {
		t.Errorf("unexpected attributes %v", found)
	}
}

func TestPreviewMetrics_Noop(t *testing.T) {
	m, err := NewPreviewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewPreviewMetrics: %v", err)
	}
	ctx := context.Background()
	m.RecordSubmission(ctx, SubmissionAccepted)
	m.RecordOutcome(ctx, "COMPLETED", time.Second)
	m.RecordPollError(ctx)
	m.RecordReleased(ctx)

	var nilMetrics *PreviewMetrics
	nilMetrics.RecordSubmission(ctx, SubmissionInvalid)
	nilMetrics.RecordOutcome(ctx, "FAILED", 0)
}

func TestPreviewMetrics_Collected(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewPreviewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.RecordSubmission(ctx, SubmissionAccepted)
	m.RecordSubmission(ctx, SubmissionRejected)
	m.RecordOutcome(ctx, "COMPLETED", 3*time.Second)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			names[md.Name] = true
			if md.Name == "preview.submissions" {
				sum := md.Data.(metricdata.Sum[int64])
				var total int64
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
				if total != 2 {
					t.Errorf("expected 2 submissions, got %d", total)
				}
			}
		}
	}
	for _, want := range []string{"preview.submissions", "preview.outcomes", "preview.duration", "preview.active"} {
		if !names[want] {
			t.Errorf("metric %s not collected", want)
		}
	}
}

func TestHTTPMetrics_Noop(t *testing.T) {
	m, err := NewHTTPMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.RecordRequestStart(ctx)
	m.RecordRequestEnd(ctx, "/v1/preview", "POST", 202, 10*time.Millisecond)
}

func TestStartSpan_EndSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx, span := StartSpan(context.Background(), SpanPreviewSubmit)
	SetSpanAttribute(ctx, AttrRunID, "run-1")
	SetSpanAttribute(ctx, AttrStatus, 3)
	EndSpan(span, errors.New("rejected"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name != SpanPreviewSubmit {
		t.Errorf("unexpected span name %q", s.Name)
	}
	if s.Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status.Code)
	}
	if len(s.Attributes) != 2 {
		t.Errorf("expected 2 attributes, got %v", s.Attributes)
	}
}

func TestSetSpanAttribute_NoSpan(t *testing.T) {
	SetSpanAttribute(context.Background(), "k", "v")
}

func TestSampler(t *testing.T) {
	for _, rate := range []float64{0, 0.5, 1} {
		if sampler(rate) == nil {
			t.Errorf("nil sampler for rate %v", rate)
		}
	}
}

func TestInit_Disabled(t *testing.T) {
	p, err := Init(context.Background(), config.ObservabilityConfig{Enabled: false}, Resource{ServiceName: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Enabled() {
		t.Error("expected no providers when disabled")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestInit_Enabled(t *testing.T) {
	prevT, prevM := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevT)
		otel.SetMeterProvider(prevM)
	})

	p, err := Init(context.Background(), config.ObservabilityConfig{
		Enabled: true, Endpoint: "127.0.0.1:4318", Insecure: true, SampleRate: 0.5,
	}, Resource{ServiceName: "pipestudio"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !p.Enabled() {
		t.Fatal("expected providers")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = p.Shutdown(ctx)
}
