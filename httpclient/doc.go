// Package httpclient is the JSON-over-HTTP transport used to talk to the
// pipeline backend.
//
// It resolves paths against a base URL, applies authentication, tags every
// request with an X-Request-Id, classifies non-2xx responses into typed
// errors and optionally runs calls through a circuit breaker. Retries are
// opt-in per request so that non-idempotent calls are never repeated.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:11015",
//	    Auth:    httpclient.BearerAuth(token),
//	})
//	resp, err := httpclient.Get[[]Artifact](client, ctx, "/v3/namespaces/default/artifacts")
package httpclient
