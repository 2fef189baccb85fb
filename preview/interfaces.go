package preview

import (
	"context"
	"time"

	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/poll"
)

// ConfigProvider exposes the pipeline being edited.
type ConfigProvider interface {
	// Pipeline returns the pipeline in export form.
	Pipeline() graph.Pipeline
	Artifact() graph.Artifact
	Name() string
	PluginRoles() graph.RoleMap
	DraftID() string
	// OnChange registers fn to run after every change and returns a function
	// that removes it.
	OnChange(fn func()) (unsubscribe func())
}

// RunHandle is the backend's answer to an accepted submission.
type RunHandle struct {
	ID string `json:"application"`
}

// RunService submits and cancels preview runs.
type RunService interface {
	Submit(ctx context.Context, namespace string, payload graph.Pipeline) (RunHandle, error)
	Stop(ctx context.Context, namespace, runID string) error
}

// RunStatus is one status poll response.
type RunStatus struct {
	Status    Status `json:"status"`
	StartTime int64  `json:"startTime,omitempty"`
	EndTime   int64  `json:"endTime,omitempty"`
}

// StatusPoller repeatedly fetches a status path. *poll.Poller[RunStatus]
// satisfies it.
type StatusPoller interface {
	Start(ctx context.Context, path string, interval time.Duration, onTick func(RunStatus), onError func(error)) poll.Handle
	Stop(h poll.Handle)
}

// StatusPath is the namespace-relative path polled for run id.
func StatusPath(runID string) string { return "/previews/" + runID + "/status" }

var _ StatusPoller = (*poll.Poller[RunStatus])(nil)
