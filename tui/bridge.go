package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kbukum/pipestudio/notify"
	"github.com/kbukum/pipestudio/preview"
)

// SnapshotSource publishes coordinator snapshots. *preview.Coordinator
// implements it.
type SnapshotSource interface {
	Snapshot() preview.Snapshot
	Subscribe(fn func(preview.Snapshot)) (unsubscribe func())
}

// latest keeps only the newest snapshot for the UI loop. Publishing never
// blocks; a snapshot not yet read is replaced.
type latest struct {
	ch chan preview.Snapshot
}

func newLatest() *latest { return &latest{ch: make(chan preview.Snapshot, 1)} }

func (l *latest) put(s preview.Snapshot) {
	for {
		select {
		case l.ch <- s:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}

// waitForSnapshot returns a command yielding the next snapshot, or nothing
// once done is closed.
func waitForSnapshot(l *latest, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-l.ch:
			return SnapshotMsg{Snapshot: s}
		case <-done:
			return nil
		}
	}
}

// waitForNotification returns a command yielding the next feed entry. A
// closed subscription yields nothing.
func waitForNotification(ch <-chan notify.Entry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return NotificationMsg{Entry: e}
	}
}

// stopCmd runs stop off the UI loop.
func stopCmd(ctx context.Context, stop func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return StopResultMsg{Err: stop(ctx)}
	}
}
