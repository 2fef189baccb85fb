package preview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/notify"
	"github.com/kbukum/pipestudio/poll"
)

// fakeProvider serves a fixed pipeline.
type fakeProvider struct {
	mu       sync.Mutex
	pipeline graph.Pipeline
	draftID  string
	listener map[int]func()
	next     int
	unsubs   int
}

func newProvider(name string, stages ...graph.Stage) *fakeProvider {
	return &fakeProvider{
		pipeline: graph.Pipeline{
			Name:     name,
			Artifact: graph.Artifact{Name: ArtifactDataPipeline, Version: "6.0.0", Scope: "SYSTEM"},
			Config:   graph.Config{Stages: stages, Connections: graph.LinearConnections(stages)},
		},
		draftID:  "draft-1",
		listener: make(map[int]func()),
	}
}

func stage(name, pluginType string) graph.Stage {
	return graph.Stage{Name: name, Plugin: graph.Plugin{Name: name + "-plugin", Type: pluginType}}
}

func (p *fakeProvider) Pipeline() graph.Pipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pipeline
}
func (p *fakeProvider) Artifact() graph.Artifact   { return p.Pipeline().Artifact }
func (p *fakeProvider) Name() string               { return p.Pipeline().Name }
func (p *fakeProvider) PluginRoles() graph.RoleMap { return graph.DefaultPluginRoles() }
func (p *fakeProvider) DraftID() string            { return p.draftID }

func (p *fakeProvider) OnChange(fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	p.listener[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.listener[id]; ok {
			delete(p.listener, id)
			p.unsubs++
		}
	}
}

func (p *fakeProvider) rename(name string) {
	p.mu.Lock()
	p.pipeline.Name = name
	fns := make([]func(), 0, len(p.listener))
	for _, fn := range p.listener {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// fakeRuns records submissions and stops.
type fakeRuns struct {
	mu       sync.Mutex
	submits  []graph.Pipeline
	stops    []string
	submitFn func(ctx context.Context) (RunHandle, error)
	stopFn   func(ctx context.Context, runID string) error
}

func (r *fakeRuns) Submit(ctx context.Context, _ string, payload graph.Pipeline) (RunHandle, error) {
	r.mu.Lock()
	r.submits = append(r.submits, payload)
	fn := r.submitFn
	n := len(r.submits)
	r.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return RunHandle{ID: fmt.Sprintf("run-%d", n)}, nil
}

func (r *fakeRuns) Stop(ctx context.Context, _ string, runID string) error {
	r.mu.Lock()
	r.stops = append(r.stops, runID)
	fn := r.stopFn
	r.mu.Unlock()
	if fn != nil {
		return fn(ctx, runID)
	}
	return nil
}

func (r *fakeRuns) submitCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.submits)
}

func (r *fakeRuns) stopCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.stops...)
}

// fakePoll is one Start call on fakePoller.
type fakePoll struct {
	path     string
	interval time.Duration
	onTick   func(RunStatus)
	onError  func(error)
	stopped  bool
}

// fakePoller never fetches; tests deliver responses explicitly, including
// to polls that were already stopped, to model in-flight responses.
type fakePoller struct {
	mu    sync.Mutex
	polls map[poll.Handle]*fakePoll
	order []poll.Handle
}

func newPoller() *fakePoller { return &fakePoller{polls: make(map[poll.Handle]*fakePoll)} }

func (p *fakePoller) Start(_ context.Context, path string, interval time.Duration, onTick func(RunStatus), onError func(error)) poll.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := poll.Handle(fmt.Sprintf("poll-%d", len(p.order)+1))
	p.polls[h] = &fakePoll{path: path, interval: interval, onTick: onTick, onError: onError}
	p.order = append(p.order, h)
	return h
}

func (p *fakePoller) Stop(h poll.Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fp, ok := p.polls[h]; ok {
		fp.stopped = true
	}
}

func (p *fakePoller) latest() *fakePoll {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.order) == 0 {
		return nil
	}
	return p.polls[p.order[len(p.order)-1]]
}

func (p *fakePoller) tick(s Status) {
	fp := p.latest()
	fp.onTick(RunStatus{Status: s})
}

func (p *fakePoller) fail(err error) {
	fp := p.latest()
	fp.onError(err)
}

func (p *fakePoller) active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, fp := range p.polls {
		if !fp.stopped {
			n++
		}
	}
	return n
}

// fakeClock fires its timers only when told to.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	fn      func()
	stopped bool
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Every(_ time.Duration, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: fn}
	c.timers = append(c.timers, t)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		t.stopped = true
	}
}

// advance moves time forward and fires every live timer once.
func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var fns []func()
	for _, t := range c.timers {
		if !t.stopped {
			fns = append(fns, t.fn)
		}
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *fakeClock) liveTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// recorder collects notifications.
type recorder struct {
	mu    sync.Mutex
	notes []notify.Notification
}

func (r *recorder) Show(n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) all() []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notification(nil), r.notes...)
}
