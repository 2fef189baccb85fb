package preview

import "github.com/kbukum/pipestudio/notify"

// Status is a run status reported by the backend. Values outside the
// constants below are carried through unchanged and treated as terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusStarted   Status = "STARTED"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusStopped   Status = "STOPPED"
	StatusKilled    Status = "KILLED"
	StatusFailed    Status = "FAILED"
)

// IsActive reports whether a run with status s is still executing.
// RUNNING, STARTED and PENDING are active; a run that was accepted but not
// yet scheduled keeps polling.
//
// With legacy set it reproduces the historical check
// `s != RUNNING || s != STARTED`, which holds for every value and therefore
// ends each run on its first poll.
func IsActive(s Status, legacy bool) bool {
	if legacy {
		notRunning := s != StatusRunning
		notStarted := s != StatusStarted
		return !(notRunning || notStarted)
	}
	switch s {
	case StatusRunning, StatusStarted, StatusPending:
		return true
	default:
		return false
	}
}

// Subject names the preview in user-facing messages.
func Subject(pipelineName string) string {
	if pipelineName == "" {
		return "Pipeline preview"
	}
	return `Preview of pipeline "` + pipelineName + `"`
}

// OutcomeNotification builds the notification for a run that ended with s.
func OutcomeNotification(pipelineName string, s Status) notify.Notification {
	subject := Subject(pipelineName)
	switch s {
	case StatusCompleted:
		return notify.SuccessNote(subject + " is finished.")
	case StatusStopped, StatusKilled:
		return notify.SuccessNote(subject + " was stopped successfully.")
	default:
		return notify.DangerNote(subject + " failed. Please check logs for more information.")
	}
}
