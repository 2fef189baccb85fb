// Package middleware holds the Gin middleware of the control API: panic
// recovery, request ids, request logging, bearer authentication, per-client
// rate limiting, body size limits and request telemetry.
package middleware
