package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/notify"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	offline         bool
	notifiers       []notify.Notifier
	summaryOut      io.Writer
	quietSummary    bool
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is initialized from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithOffline skips the backend reachability check at startup and serves
// the configured artifact list instead of asking the backend. Import,
// validate and drafts keep working; preview calls fail when made.
func WithOffline() Option {
	return func(o *appOptions) {
		o.offline = true
	}
}

// WithNotifier adds a notification target next to the feed and the log.
func WithNotifier(n notify.Notifier) Option {
	return func(o *appOptions) {
		o.notifiers = append(o.notifiers, n)
	}
}

// WithSummaryWriter sets where the startup summary is printed. A nil writer
// disables it. The default is stderr.
func WithSummaryWriter(w io.Writer) Option {
	return func(o *appOptions) {
		o.summaryOut = w
		o.quietSummary = w == nil
	}
}
