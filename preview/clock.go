package preview

import (
	"context"
	"time"

	"github.com/kbukum/pipestudio/poll"
)

// Clock supplies time and the duration timer. The stop function returned by
// Every must not wait for a running fn.
type Clock interface {
	Now() time.Time
	Every(interval time.Duration, fn func()) (stop func())
}

// SystemClock is the wall clock, with timers on poll tasks.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// Every implements Clock.
func (SystemClock) Every(interval time.Duration, fn func()) func() {
	t := poll.Repeat(context.Background(), interval, false, func(context.Context) { fn() })
	return t.Stop
}
