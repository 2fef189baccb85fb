package cdap

import (
	"context"

	"github.com/kbukum/pipestudio/config"
	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/httpclient"
	"github.com/kbukum/pipestudio/logger"
)

// Artifacts lists the artifacts deployed in a namespace.
func (c *Client) Artifacts(ctx context.Context, namespace string) ([]graph.Artifact, error) {
	resp, err := httpclient.Get[[]graph.Artifact](c.http, ctx, namespacePath(namespace)+"/artifacts",
		httpclient.WithRetry(httpclient.IdempotentRetry()))
	if err != nil {
		return nil, httpclient.ToAppError(err, ServiceName)
	}
	return resp.Data, nil
}

// KnownArtifacts returns the namespace's artifacts, or fallback when the
// backend cannot be reached or lists none.
func (c *Client) KnownArtifacts(ctx context.Context, namespace string, fallback []graph.Artifact) []graph.Artifact {
	list, err := c.Artifacts(ctx, namespace)
	if err != nil {
		c.log.Warn("Artifact list unavailable, using configured artifacts",
			logger.MergeWithError(logger.Fields(logger.FieldNamespace, namespace), err))
		return fallback
	}
	if len(list) == 0 {
		return fallback
	}
	return list
}

// ConfiguredArtifacts converts the static artifact list of the configuration.
func ConfiguredArtifacts(cfgs []config.ArtifactConfig) []graph.Artifact {
	out := make([]graph.Artifact, 0, len(cfgs))
	for _, a := range cfgs {
		scope := a.Scope
		if scope == "" {
			scope = "SYSTEM"
		}
		out = append(out, graph.Artifact{Name: a.Name, Version: a.Version, Scope: scope})
	}
	return out
}
