package poll

import (
	"context"
	"sync"
	"time"
)

// Task is a repeating unit of work started by Repeat.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
	ticks   int
}

// Repeat runs fn every interval until ctx is cancelled or the task is
// stopped. When immediate is true the first tick fires right away instead of
// after one interval. Ticks never overlap: if fn runs longer than interval
// the missed ticks are dropped.
func Repeat(ctx context.Context, interval time.Duration, immediate bool, fn func(ctx context.Context)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel, done: make(chan struct{})}
	go t.loop(ctx, interval, immediate, fn)
	return t
}

func (t *Task) loop(ctx context.Context, interval time.Duration, immediate bool, fn func(ctx context.Context)) {
	defer close(t.done)

	if immediate && !t.tick(ctx, fn) {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !t.tick(ctx, fn) {
				return
			}
		}
	}
}

// tick runs fn once unless the task was stopped. It reports whether the loop
// should continue.
func (t *Task) tick(ctx context.Context, fn func(ctx context.Context)) bool {
	t.mu.Lock()
	if t.stopped || ctx.Err() != nil {
		t.mu.Unlock()
		return false
	}
	t.ticks++
	t.mu.Unlock()

	fn(ctx)
	return ctx.Err() == nil
}

// Stop prevents further ticks and cancels the context of a tick in flight.
// It does not wait for that tick to return. Safe to call more than once.
func (t *Task) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.cancel()
}

// Stopped reports whether Stop was called.
func (t *Task) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Ticks returns how many ticks have started.
func (t *Task) Ticks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticks
}

// Done is closed once the task goroutine has exited.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task goroutine has exited or ctx ends. It must not
// be called from inside the tick function.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
