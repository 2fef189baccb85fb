package tui

import (
	"github.com/kbukum/pipestudio/notify"
	"github.com/kbukum/pipestudio/preview"
)

// SnapshotMsg carries a published coordinator snapshot.
type SnapshotMsg struct {
	Snapshot preview.Snapshot
}

// NotificationMsg carries a new notification feed entry.
type NotificationMsg struct {
	Entry notify.Entry
}

// StopResultMsg reports the outcome of a stop requested from the keyboard.
type StopResultMsg struct {
	Err error
}
