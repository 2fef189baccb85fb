package notify

import "github.com/kbukum/pipestudio/logger"

// Log writes notifications to a structured logger. Success notifications are
// logged at info, danger ones at warn.
type Log struct {
	log *logger.Logger
}

// NewLog creates a Log notifier. A nil logger uses the "notify" component
// logger.
func NewLog(l *logger.Logger) *Log {
	if l == nil {
		l = logger.Get("notify")
	}
	return &Log{log: l}
}

// Show implements Notifier.
func (l *Log) Show(n Notification) {
	fields := logger.Fields("type", string(n.Type))
	if n.Type == Danger {
		l.log.Warn(n.Content, fields)
		return
	}
	l.log.Info(n.Content, fields)
}
