package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Submission outcomes.
const (
	SubmissionAccepted = "accepted"
	SubmissionRejected = "rejected"
	SubmissionInvalid  = "invalid"
)

// PreviewMetrics holds the instruments of the preview lifecycle.
type PreviewMetrics struct {
	submissions metric.Int64Counter
	outcomes    metric.Int64Counter
	duration    metric.Float64Histogram
	active      metric.Int64UpDownCounter
	pollErrors  metric.Int64Counter
}

// NewPreviewMetrics creates the preview instruments on meter.
func NewPreviewMetrics(meter metric.Meter) (*PreviewMetrics, error) {
	submissions, err := meter.Int64Counter("preview.submissions",
		metric.WithDescription("Preview submissions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating preview.submissions counter: %w", err)
	}

	outcomes, err := meter.Int64Counter("preview.outcomes",
		metric.WithDescription("Finished preview runs by terminal status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating preview.outcomes counter: %w", err)
	}

	duration, err := meter.Float64Histogram("preview.duration",
		metric.WithDescription("Wall-clock duration of preview runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating preview.duration histogram: %w", err)
	}

	active, err := meter.Int64UpDownCounter("preview.active",
		metric.WithDescription("Preview runs currently being watched"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating preview.active gauge: %w", err)
	}

	pollErrors, err := meter.Int64Counter("preview.poll.errors",
		metric.WithDescription("Status poll transport failures"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating preview.poll.errors counter: %w", err)
	}

	return &PreviewMetrics{
		submissions: submissions,
		outcomes:    outcomes,
		duration:    duration,
		active:      active,
		pollErrors:  pollErrors,
	}, nil
}

// RecordSubmission counts one submit attempt. A run that was accepted is
// also counted as active until RecordOutcome or RecordReleased.
func (m *PreviewMetrics) RecordSubmission(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == SubmissionAccepted {
		m.active.Add(ctx, 1)
	}
}

// RecordResumed counts a run picked up again after a restart as active.
func (m *PreviewMetrics) RecordResumed(ctx context.Context) {
	if m == nil {
		return
	}
	m.active.Add(ctx, 1)
}

// RecordOutcome records a run that reached a terminal status.
func (m *PreviewMetrics) RecordOutcome(ctx context.Context, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.outcomes.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
	m.active.Add(ctx, -1)
}

// RecordReleased records a run released without a terminal status: stopped
// by the user, disposed or failed to poll.
func (m *PreviewMetrics) RecordReleased(ctx context.Context) {
	if m == nil {
		return
	}
	m.active.Add(ctx, -1)
}

// RecordPollError counts a failed status poll.
func (m *PreviewMetrics) RecordPollError(ctx context.Context) {
	if m == nil {
		return
	}
	m.pollErrors.Add(ctx, 1)
}

// HTTPMetrics holds control API request instruments.
type HTTPMetrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestActive   metric.Int64UpDownCounter
}

// NewHTTPMetrics creates request instruments on meter.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	requestTotal, err := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Total number of control API requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("Duration of control API requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.duration histogram: %w", err)
	}

	requestActive, err := meter.Int64UpDownCounter("http.server.active",
		metric.WithDescription("Number of in-flight control API requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http.server.active gauge: %w", err)
	}

	return &HTTPMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestActive:   requestActive,
	}, nil
}

// RecordRequestStart increments the in-flight count.
func (m *HTTPMetrics) RecordRequestStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd decrements the in-flight count and records the request.
func (m *HTTPMetrics) RecordRequestEnd(ctx context.Context, route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("method", method),
		attribute.Int("status", status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("method", method),
	))
}
