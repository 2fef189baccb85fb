// Package cdap is the REST client for the pipeline backend: preview
// submission, stop and status, and the artifact catalogue.
//
// Paths follow the backend's v3 namespace layout:
//
//	POST /v3/namespaces/{ns}/previews            submit, answers {"application": id}
//	POST /v3/namespaces/{ns}/previews/{id}/stop  stop
//	GET  /v3/namespaces/{ns}/previews/{id}/status
//	GET  /v3/namespaces/{ns}/artifacts
//
// *Client satisfies preview.RunService, and StatusFetcher feeds a
// poll.Poller that satisfies preview.StatusPoller.
package cdap
