// Package observability wires OpenTelemetry tracing and metrics for the
// studio.
//
//	p, err := observability.Init(ctx, cfg.Observability, observability.Resource{
//		ServiceName: cfg.Name, ServiceVersion: version.Version, Environment: cfg.Environment,
//	})
//	defer p.Shutdown(ctx)
//
//	metrics, err := observability.NewPreviewMetrics(observability.Meter(observability.InstrumentationName))
//	metrics.RecordSubmission(ctx, observability.SubmissionAccepted)
//
// When observability is disabled Init installs nothing and the global otel
// providers stay no-ops, so instruments and spans cost nothing.
package observability
