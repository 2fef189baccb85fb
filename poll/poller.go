package poll

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/pipestudio/logger"
)

// Handle identifies one active poll started by a Poller.
type Handle string

// FetchFunc retrieves the current value of path.
type FetchFunc[T any] func(ctx context.Context, path string) (T, error)

// Poller runs one Task per active poll.
type Poller[T any] struct {
	fetch FetchFunc[T]
	log   *logger.Logger

	mu    sync.Mutex
	tasks map[Handle]*Task
}

// NewPoller creates a Poller that retrieves values with fetch.
func NewPoller[T any](fetch FetchFunc[T]) *Poller[T] {
	return &Poller[T]{
		fetch: fetch,
		log:   logger.Get("poll"),
		tasks: make(map[Handle]*Task),
	}
}

// Start fetches path immediately and then every interval, passing each
// value to onTick. The first fetch error is passed to onError and ends the
// poll. Callbacks run on the poll goroutine and may call Stop.
func (p *Poller[T]) Start(ctx context.Context, path string, interval time.Duration, onTick func(T), onError func(error)) Handle {
	h := Handle(uuid.NewString())

	p.mu.Lock()
	defer p.mu.Unlock()

	task := Repeat(ctx, interval, true, func(ctx context.Context) {
		val, err := p.fetch(ctx, path)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			p.log.Debug("Poll fetch failed", logger.Fields("path", path, logger.FieldError, err.Error()))
			p.Stop(h)
			if onError != nil {
				onError(err)
			}
			return
		}
		if onTick != nil {
			onTick(val)
		}
	})
	p.tasks[h] = task
	p.log.Debug("Poll started", logger.Fields("path", path, "handle", string(h), "interval", interval.String()))
	go func() {
		<-task.Done()
		p.mu.Lock()
		if p.tasks[h] == task {
			delete(p.tasks, h)
		}
		p.mu.Unlock()
	}()
	return h
}

// Stop ends the poll identified by h. Unknown or already stopped handles are
// ignored.
func (p *Poller[T]) Stop(h Handle) {
	p.mu.Lock()
	task, ok := p.tasks[h]
	delete(p.tasks, h)
	p.mu.Unlock()
	if ok {
		task.Stop()
	}
}

// Active returns the number of polls currently running.
func (p *Poller[T]) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

// StopAll ends every active poll.
func (p *Poller[T]) StopAll() {
	p.mu.Lock()
	tasks := p.tasks
	p.tasks = make(map[Handle]*Task)
	p.mu.Unlock()
	for _, t := range tasks {
		t.Stop()
	}
}
