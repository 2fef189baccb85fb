// Package resilience guards calls to the pipeline backend.
//
//   - CircuitBreaker fails fast once the backend keeps erroring.
//   - Retry re-runs idempotent reads with exponential backoff.
//   - RateLimiter is a token bucket used by the control API.
//
// Preview submissions are never retried; callers opt in per request.
//
//	cb := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("cdap"))
//	err := cb.Execute(func() error { return doRequest() })
package resilience
