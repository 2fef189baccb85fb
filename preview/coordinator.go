package preview

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/kbukum/pipestudio/errors"
	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/notify"
	"github.com/kbukum/pipestudio/observability"
	"github.com/kbukum/pipestudio/poll"
	"github.com/kbukum/pipestudio/store"
)

// Defaults for Options.
const (
	DefaultPollInterval  = 5 * time.Second
	DefaultTimerInterval = 500 * time.Millisecond
	DefaultStopTimeout   = 10 * time.Second
)

var (
	// ErrDisposed is returned by operations on a disposed coordinator.
	ErrDisposed = stderrors.New("preview: coordinator disposed")
	// ErrCancelled is returned by Submit when Stop or Dispose won the race
	// against the submission response.
	ErrCancelled = stderrors.New("preview: submission cancelled")
)

// Options configures a Coordinator. Provider, Runs and Poller are required.
type Options struct {
	Namespace string
	Provider  ConfigProvider
	Runs      RunService
	Poller    StatusPoller
	Notifier  notify.Notifier
	// State receives LastDraftId and LastPreviewId after each accepted
	// submission. Optional.
	State   store.ContextStore[string]
	Clock   Clock
	Metrics *observability.PreviewMetrics
	Logger  *logger.Logger

	PollInterval     time.Duration
	TimerInterval    time.Duration
	StopTimeout      time.Duration
	StreamingTimeout int // minutes
	// LegacyStatusCheck restores the historical status predicate that ends
	// every run on its first poll.
	LegacyStatusCheck bool
}

// Coordinator owns the preview run lifecycle. It is safe for concurrent use.
type Coordinator struct {
	opts     Options
	log      *logger.Logger
	baseCtx  context.Context
	cancel   context.CancelFunc
	unsubCfg func()

	mu           sync.Mutex
	state        State
	gen          uint64
	version      uint64
	run          *Run
	lastRun      *Run
	previewID    string
	duration     DurationDisplay
	loadingLabel string
	pipelineName string
	lastErr      string
	stopTimer    func()
	pollHandle   poll.Handle
	cancelSubmit context.CancelFunc
	disposed     bool
	orphans      sync.WaitGroup
	hooks        []func()
	subs         map[int]func(Snapshot)
	nextSub      int
}

// New creates an idle coordinator and subscribes it to provider changes.
func New(opts Options) (*Coordinator, error) {
	if opts.Provider == nil || opts.Runs == nil || opts.Poller == nil {
		return nil, errors.Validation("preview coordinator requires a provider, run service and poller")
	}
	if opts.Namespace == "" {
		opts.Namespace = "default"
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.TimerInterval <= 0 {
		opts.TimerInterval = DefaultTimerInterval
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = DefaultStopTimeout
	}
	if opts.StreamingTimeout <= 0 {
		opts.StreamingTimeout = DefaultStreamingTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logger.Get("preview")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		opts:         opts,
		log:          log.WithFields(logger.Fields(logger.FieldNamespace, opts.Namespace)),
		baseCtx:      ctx,
		cancel:       cancel,
		state:        StateIdle,
		duration:     IdleDuration(),
		pipelineName: opts.Provider.Name(),
		subs:         make(map[int]func(Snapshot)),
	}
	if opts.LegacyStatusCheck {
		c.log.Warn("Legacy preview status check enabled; every run ends on its first poll")
	}
	c.unsubCfg = opts.Provider.OnChange(c.onConfigChange)
	return c, nil
}

// Snapshot returns the current published state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PreviewID returns the id of the current or most recent run.
func (c *Coordinator) PreviewID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previewID
}

// Subscribe registers fn to receive every published snapshot and returns a
// function that removes it. fn runs outside the coordinator lock.
func (c *Coordinator) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// OnDispose registers fn to run during Dispose, such as the cancel function
// of a timer owned by a sibling concern. If the coordinator is already
// disposed fn runs immediately.
func (c *Coordinator) OnDispose(fn func()) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		fn()
		return
	}
	c.hooks = append(c.hooks, fn)
	c.mu.Unlock()
}

// Submit starts a preview run of the provider's pipeline. It fails with
// PREVIEW_BUSY unless the coordinator is idle, with NO_SOURCE_OR_SINK before
// any network call when the pipeline has no source or sink, and with
// SUBMISSION_FAILED carrying the backend's message when the run is rejected.
// Every failure is also notified. Rejected submissions are not retried.
func (c *Coordinator) Submit(ctx context.Context, runtimeArgs map[string]string) (*Run, error) {
	pipeline := c.opts.Provider.Pipeline()
	roles := c.opts.Provider.PluginRoles()
	name := c.opts.Provider.Name()
	draftID := c.opts.Provider.DraftID()

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, ErrDisposed
	}
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		return nil, errors.PreviewBusy(string(state))
	}

	c.pipelineName = name

	cfg, err := DeriveConfig(pipeline, roles, runtimeArgs)
	if err != nil {
		msg := errors.Wrap(err).Message
		c.lastErr = msg
		snap := c.changedLocked()
		c.mu.Unlock()
		c.opts.Metrics.RecordSubmission(ctx, observability.SubmissionInvalid)
		c.log.Info("Preview not submitted", logger.Fields(logger.FieldPipeline, name, logger.FieldError, err.Error()))
		c.publish(snap)
		c.opts.Notifier.Show(notify.DangerNote(msg))
		return nil, err
	}
	payload, err := BuildPayload(pipeline, cfg, c.opts.StreamingTimeout)
	if err != nil {
		c.mu.Unlock()
		return nil, errors.Internal(err)
	}

	c.gen++
	gen := c.gen
	submitCtx, cancel := context.WithCancel(ctx)
	c.cancelSubmit = cancel
	c.state = StateSubmitting
	c.loadingLabel = LabelStarting
	c.duration = IdleDuration()
	c.lastErr = ""
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)

	spanCtx, span := observability.StartSpan(submitCtx, observability.SpanPreviewSubmit)
	observability.SetSpanAttribute(spanCtx, observability.AttrNamespace, c.opts.Namespace)
	observability.SetSpanAttribute(spanCtx, observability.AttrPipeline, name)
	handle, err := c.opts.Runs.Submit(spanCtx, c.opts.Namespace, payload)
	cancel()
	observability.EndSpan(span, err)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		if err == nil && handle.ID != "" {
			c.stopOrphan(ctx, handle.ID)
		}
		return nil, ErrCancelled
	}
	c.cancelSubmit = nil

	if err != nil {
		msg := submissionMessage(err)
		c.state = StateIdle
		c.loadingLabel = ""
		c.lastErr = msg
		snap := c.changedLocked()
		c.mu.Unlock()
		c.opts.Metrics.RecordSubmission(ctx, observability.SubmissionRejected)
		c.log.Warn("Preview submission rejected", logger.MergeWithError(logger.Fields(logger.FieldPipeline, name), err))
		c.publish(snap)
		c.opts.Notifier.Show(notify.DangerNote(msg))
		if errors.Is(err, errors.ErrCodeSubmissionFailed) {
			return nil, err
		}
		return nil, errors.SubmissionFailed(msg, err)
	}

	run := &Run{ID: handle.ID, StartTime: c.opts.Clock.Now(), Status: StatusPending}
	c.run = run
	c.previewID = run.ID
	c.state = StateRunning
	c.loadingLabel = ""
	c.startTimerLocked(gen)
	c.startPollLocked(gen, run.ID)
	out := copyRun(run)
	snap = c.changedLocked()
	c.mu.Unlock()

	c.opts.Metrics.RecordSubmission(ctx, observability.SubmissionAccepted)
	c.log.Info("Preview started", logger.Fields(logger.FieldRunID, run.ID, logger.FieldPipeline, name, logger.FieldGeneration, gen))
	c.publish(snap)
	c.persist(ctx, draftID, run.ID)
	return out, nil
}

// Resume watches a run submitted before a restart. The start time is
// unknown, so the duration keeps its placeholder. No-op unless idle.
func (c *Coordinator) Resume(runID string) bool {
	if runID == "" {
		return false
	}
	c.mu.Lock()
	if c.disposed || c.state != StateIdle {
		c.mu.Unlock()
		return false
	}
	c.gen++
	gen := c.gen
	c.run = &Run{ID: runID, Status: StatusPending}
	c.previewID = runID
	c.state = StateRunning
	c.duration = IdleDuration()
	c.lastErr = ""
	c.startPollLocked(gen, runID)
	snap := c.changedLocked()
	c.mu.Unlock()

	c.opts.Metrics.RecordResumed(context.Background())
	c.log.Info("Preview resumed", logger.Fields(logger.FieldRunID, runID))
	c.publish(snap)
	return true
}

// Stop cancels the active run. The duration timer and the poll are stopped
// before the backend is asked to stop, and no poll response processed
// afterwards changes the run. While submitting, the request is abandoned and
// a run accepted late is stopped in the background. With no active run Stop
// is a no-op.
func (c *Coordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateSubmitting:
		c.gen++
		if c.cancelSubmit != nil {
			c.cancelSubmit()
			c.cancelSubmit = nil
		}
		c.state = StateIdle
		c.loadingLabel = ""
		snap := c.changedLocked()
		c.mu.Unlock()
		c.log.Info("Preview submission abandoned")
		c.publish(snap)
		return nil
	case StateRunning:
	default:
		c.mu.Unlock()
		return nil
	}

	c.gen++
	gen := c.gen
	c.haltLocked()
	run := c.run
	c.state = StateStopping
	c.loadingLabel = LabelStopping
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)

	spanCtx, span := observability.StartSpan(ctx, observability.SpanPreviewStop)
	observability.SetSpanAttribute(spanCtx, observability.AttrRunID, run.ID)
	err := c.opts.Runs.Stop(spanCtx, c.opts.Namespace, run.ID)
	observability.EndSpan(span, err)

	c.mu.Lock()
	if gen != c.gen {
		// Disposed while stopping.
		c.mu.Unlock()
		c.opts.Metrics.RecordReleased(ctx)
		return err
	}
	c.state = StateIdle
	c.loadingLabel = ""
	c.run = nil
	c.lastRun = copyRun(run)
	var note notify.Notification
	if err != nil {
		appErr := errors.StopFailed(run.ID, err)
		c.lastErr = appErr.Message
		note = notify.DangerNote(appErr.Message)
		err = appErr
	} else {
		c.lastRun.Status = StatusStopped
		note = OutcomeNotification(c.opts.Provider.Name(), StatusStopped)
	}
	snap = c.changedLocked()
	c.mu.Unlock()

	c.opts.Metrics.RecordReleased(ctx)
	if err != nil {
		c.log.Error("Preview stop failed", logger.MergeWithError(logger.Fields(logger.FieldRunID, run.ID), err))
	} else {
		c.log.Info("Preview stopped", logger.Fields(logger.FieldRunID, run.ID))
	}
	c.publish(snap)
	c.opts.Notifier.Show(note)
	return err
}

// Dispose tears the coordinator down: it cancels the poll, the duration
// timer and a pending submission, runs the OnDispose hooks, unsubscribes
// from provider changes, stops an active run on a best-effort basis and
// resets the published state. It emits no notifications and is idempotent.
// The best-effort stop runs in the background, bounded by StopTimeout; use
// Wait to block until it has returned.
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.gen++
	c.haltLocked()
	if c.cancelSubmit != nil {
		c.cancelSubmit()
		c.cancelSubmit = nil
	}
	var activeID string
	if c.run != nil && c.state == StateRunning {
		activeID = c.run.ID
	}
	hooks := c.hooks
	c.hooks = nil
	c.state = StateIdle
	c.run = nil
	c.lastRun = nil
	c.loadingLabel = ""
	c.lastErr = ""
	c.duration = IdleDuration()
	snap := c.changedLocked()
	subs := c.subscribersLocked()
	c.subs = make(map[int]func(Snapshot))
	c.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	for _, fn := range hooks {
		fn()
	}
	if c.unsubCfg != nil {
		c.unsubCfg()
	}
	if activeID != "" {
		c.opts.Metrics.RecordReleased(context.Background())
		c.orphans.Add(1)
		go func() {
			defer c.orphans.Done()
			c.stopOrphan(context.Background(), activeID)
		}()
	}
	c.cancel()
	c.log.Debug("Preview coordinator disposed")
}

// Wait blocks until the background stop started by Dispose has returned or
// ctx is done.
func (c *Coordinator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.orphans.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- internals ---

func (c *Coordinator) startTimerLocked(gen uint64) {
	c.stopTimer = c.opts.Clock.Every(c.opts.TimerInterval, func() { c.onTimerTick(gen) })
}

func (c *Coordinator) startPollLocked(gen uint64, runID string) {
	c.pollHandle = c.opts.Poller.Start(c.baseCtx, StatusPath(runID), c.opts.PollInterval,
		func(s RunStatus) { c.onPollStatus(gen, runID, s) },
		func(err error) { c.onPollError(gen, runID, err) },
	)
}

// haltLocked stops the duration timer and the poll.
func (c *Coordinator) haltLocked() {
	if c.stopTimer != nil {
		c.stopTimer()
		c.stopTimer = nil
	}
	if c.pollHandle != "" {
		c.opts.Poller.Stop(c.pollHandle)
		c.pollHandle = ""
	}
}

// currentLocked reports whether a callback of generation gen for runID may
// still act.
func (c *Coordinator) currentLocked(gen uint64, runID string) bool {
	return gen == c.gen && c.state == StateRunning && c.run != nil && c.run.ID == runID
}

func (c *Coordinator) onTimerTick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateRunning || c.run == nil || c.run.StartTime.IsZero() {
		c.mu.Unlock()
		return
	}
	d := FormatDuration(c.opts.Clock.Now().Sub(c.run.StartTime))
	if d == c.duration {
		c.mu.Unlock()
		return
	}
	c.duration = d
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
}

func (c *Coordinator) onPollStatus(gen uint64, runID string, s RunStatus) {
	c.mu.Lock()
	if !c.currentLocked(gen, runID) {
		c.mu.Unlock()
		return
	}
	c.run.Status = s.Status
	if IsActive(s.Status, c.opts.LegacyStatusCheck) {
		snap := c.changedLocked()
		c.mu.Unlock()
		c.publish(snap)
		return
	}

	c.haltLocked()
	run := copyRun(c.run)
	var elapsed time.Duration
	if !run.StartTime.IsZero() {
		elapsed = c.opts.Clock.Now().Sub(run.StartTime)
		c.duration = FormatDuration(elapsed)
	}
	c.state = StateIdle
	c.run = nil
	c.lastRun = run
	snap := c.changedLocked()
	c.mu.Unlock()

	c.opts.Metrics.RecordOutcome(context.Background(), string(s.Status), elapsed)
	c.log.Info("Preview finished", logger.Fields(
		logger.FieldRunID, runID,
		logger.FieldStatus, string(s.Status),
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	c.publish(snap)
	c.opts.Notifier.Show(OutcomeNotification(c.opts.Provider.Name(), s.Status))
}

func (c *Coordinator) onPollError(gen uint64, runID string, err error) {
	c.mu.Lock()
	if !c.currentLocked(gen, runID) {
		c.mu.Unlock()
		return
	}
	c.haltLocked()
	appErr := errors.PollFailed(runID, err)
	c.state = StateIdle
	c.lastRun = copyRun(c.run)
	c.run = nil
	c.lastErr = appErr.Message
	snap := c.changedLocked()
	c.mu.Unlock()

	c.opts.Metrics.RecordPollError(context.Background())
	c.opts.Metrics.RecordReleased(context.Background())
	c.log.Error("Preview status poll failed", logger.MergeWithError(logger.Fields(logger.FieldRunID, runID), err))
	c.publish(snap)
	c.opts.Notifier.Show(notify.DangerNote(appErr.Message))
}

func (c *Coordinator) onConfigChange() {
	name := c.opts.Provider.Name()
	c.mu.Lock()
	if c.disposed || name == c.pipelineName {
		c.mu.Unlock()
		return
	}
	c.pipelineName = name
	snap := c.changedLocked()
	c.mu.Unlock()
	c.publish(snap)
}

// stopOrphan stops a run nobody watches any more. Errors are logged only.
func (c *Coordinator) stopOrphan(ctx context.Context, runID string) {
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.StopTimeout)
	defer cancel()
	if err := c.opts.Runs.Stop(stopCtx, c.opts.Namespace, runID); err != nil {
		c.log.Warn("Best-effort preview stop failed", logger.MergeWithError(logger.Fields(logger.FieldRunID, runID), err))
	}
}

func (c *Coordinator) persist(ctx context.Context, draftID, runID string) {
	if c.opts.State == nil {
		return
	}
	if err := c.opts.State.Save(ctx, store.LastDraftID, &draftID, 0); err != nil {
		c.log.Warn("Failed to persist last draft id", logger.ErrorFields("persist", err))
	}
	if err := c.opts.State.Save(ctx, store.LastPreviewID, &runID, 0); err != nil {
		c.log.Warn("Failed to persist last preview id", logger.ErrorFields("persist", err))
	}
}

// submissionMessage extracts the backend-provided text of a rejection.
func submissionMessage(err error) string {
	if appErr, ok := errors.AsAppError(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}

func (c *Coordinator) changedLocked() Snapshot {
	c.version++
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	s := Snapshot{
		Version:      c.version,
		State:        c.state,
		Run:          copyRun(c.run),
		LastRun:      copyRun(c.lastRun),
		PreviewID:    c.previewID,
		Duration:     c.duration,
		Loading:      c.state == StateSubmitting || c.state == StateStopping,
		LoadingLabel: c.loadingLabel,
		PipelineName: c.pipelineName,
		LastError:    c.lastErr,
	}
	return s
}

func (c *Coordinator) subscribersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}

func (c *Coordinator) publish(s Snapshot) {
	c.mu.Lock()
	subs := c.subscribersLocked()
	c.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}
