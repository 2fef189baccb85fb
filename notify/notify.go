// Package notify delivers user-facing notifications: the outcome of a
// preview run, a failed import, a validation result.
//
// Notifier has several sinks: Terminal prints styled lines, Log writes to
// the structured logger, Feed keeps a bounded history the control API serves,
// and Multi fans one notification out to several of them.
package notify

import "time"

// Type is the tone of a notification.
type Type string

const (
	Success Type = "success"
	Danger  Type = "danger"
)

// Notification is one message shown to the user.
type Notification struct {
	Type    Type      `json:"type"`
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// Notifier shows notifications. Implementations must be safe for concurrent
// use and must not block for long.
type Notifier interface {
	Show(n Notification)
}

// Func adapts a function to Notifier.
type Func func(n Notification)

// Show implements Notifier.
func (f Func) Show(n Notification) { f(n) }

// Nop discards every notification.
var Nop Notifier = Func(func(Notification) {})

// SuccessNote builds a success notification.
func SuccessNote(content string) Notification {
	return Notification{Type: Success, Content: content, Time: time.Now()}
}

// DangerNote builds a danger notification.
func DangerNote(content string) Notification {
	return Notification{Type: Danger, Content: content, Time: time.Now()}
}
