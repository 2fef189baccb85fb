package cdap

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/kbukum/pipestudio/errors"
	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/httpclient"
	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/observability"
	"github.com/kbukum/pipestudio/poll"
	"github.com/kbukum/pipestudio/preview"
)

var _ preview.RunService = (*Client)(nil)

// Submit posts a preview payload. A rejection by the backend becomes
// SUBMISSION_FAILED carrying the backend's own message. Submissions are
// never retried.
func (c *Client) Submit(ctx context.Context, namespace string, payload graph.Pipeline) (preview.RunHandle, error) {
	resp, err := httpclient.Post[preview.RunHandle](c.http, ctx, namespacePath(namespace)+"/previews", payload)
	if err != nil {
		var httpErr *httpclient.Error
		if errors.As(err, &httpErr) && httpErr.StatusCode != 0 {
			return preview.RunHandle{}, apperrors.SubmissionFailed(httpErr.ServerMessage(), err).
				WithDetail("status", httpErr.StatusCode)
		}
		return preview.RunHandle{}, httpclient.ToAppError(err, ServiceName)
	}
	if resp.Data.ID == "" {
		return preview.RunHandle{}, apperrors.SubmissionFailed("Preview submission returned no run id.", nil)
	}
	c.log.Debug("Preview accepted", logger.Fields(logger.FieldNamespace, namespace, logger.FieldRunID, resp.Data.ID))
	return resp.Data, nil
}

// Stop asks the backend to stop a preview run.
func (c *Client) Stop(ctx context.Context, namespace, runID string) error {
	_, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   namespacePath(namespace) + "/previews/" + runID + "/stop",
	})
	if err != nil {
		return httpclient.ToAppError(err, ServiceName)
	}
	return nil
}

// Status fetches the status of one run.
func (c *Client) Status(ctx context.Context, namespace, runID string) (preview.RunStatus, error) {
	return c.StatusFetcher(namespace)(ctx, preview.StatusPath(runID))
}

// StatusFetcher returns a fetch function for poll.NewPoller that resolves
// namespace-relative status paths. Transient failures are retried before an
// error reaches the poller, which ends the poll on the first error.
func (c *Client) StatusFetcher(namespace string) poll.FetchFunc[preview.RunStatus] {
	prefix := namespacePath(namespace)
	return func(ctx context.Context, path string) (preview.RunStatus, error) {
		ctx, span := observability.StartSpan(ctx, observability.SpanPreviewPoll)
		resp, err := httpclient.Get[preview.RunStatus](c.http, ctx, prefix+path,
			httpclient.WithRetry(httpclient.IdempotentRetry()))
		observability.EndSpan(span, err)
		if err != nil {
			return preview.RunStatus{}, err
		}
		return resp.Data, nil
	}
}

// NewStatusPoller returns a poller over the namespace's status paths.
func (c *Client) NewStatusPoller(namespace string) *poll.Poller[preview.RunStatus] {
	return poll.NewPoller(c.StatusFetcher(namespace))
}
