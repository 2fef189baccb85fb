package preview

import "time"

// State is the coordinator lifecycle state.
type State string

const (
	StateIdle       State = "Idle"
	StateSubmitting State = "Submitting"
	StateRunning    State = "Running"
	StateStopping   State = "Stopping"
)

// Loading labels shown while a request is in flight.
const (
	LabelStarting = "Starting"
	LabelStopping = "Stopping"
)

// Run is the preview run a coordinator watches.
type Run struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"startTime"`
	Status    Status    `json:"status"`
}

// Snapshot is the published state of a coordinator. Version increases with
// every change so consumers can drop stale copies.
type Snapshot struct {
	Version      uint64          `json:"version"`
	State        State           `json:"state"`
	Run          *Run            `json:"run,omitempty"`
	LastRun      *Run            `json:"lastRun,omitempty"`
	PreviewID    string          `json:"previewId,omitempty"`
	Duration     DurationDisplay `json:"duration"`
	Loading      bool            `json:"loading"`
	LoadingLabel string          `json:"loadingLabel,omitempty"`
	PipelineName string          `json:"pipelineName"`
	LastError    string          `json:"lastError,omitempty"`
}

// Active reports whether a run is being submitted, watched or stopped.
func (s Snapshot) Active() bool { return s.State != StateIdle }

func copyRun(r *Run) *Run {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
