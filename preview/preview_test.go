package preview

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"slices"
	"testing"
	"time"

	"github.com/kbukum/pipestudio/errors"
	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/notify"
	"github.com/kbukum/pipestudio/store"
)

type harness struct {
	provider *fakeProvider
	runs     *fakeRuns
	poller   *fakePoller
	clock    *fakeClock
	notes    *recorder
	state    *store.MemoryStore[string]
	c        *Coordinator
}

func newHarness(t *testing.T, provider *fakeProvider, mutate ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		provider: provider,
		runs:     &fakeRuns{},
		poller:   newPoller(),
		clock:    newClock(),
		notes:    &recorder{},
		state:    store.NewMemoryStore[string](),
	}
	opts := Options{
		Namespace: "default",
		Provider:  h.provider,
		Runs:      h.runs,
		Poller:    h.poller,
		Notifier:  h.notes,
		State:     h.state,
		Clock:     h.clock,
		Logger:    logger.Nop(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Dispose)
	h.c = c
	return h
}

func salesETL() *fakeProvider {
	return newProvider("Sales ETL",
		stage("File", "batchsource"),
		stage("Wrangler", "transform"),
		stage("Table", "batchsink"),
	)
}

func TestDeriveConfig(t *testing.T) {
	tests := []struct {
		name      string
		stages    []graph.Stage
		wantErr   bool
		wantStart []string
		wantEnd   []string
	}{
		{"no stages", nil, true, nil, nil},
		{"no source", []graph.Stage{stage("T", "transform"), stage("S", "batchsink")}, true, nil, nil},
		{"no sink", []graph.Stage{stage("F", "batchsource"), stage("T", "transform")}, true, nil, nil},
		{
			"sources and sinks",
			[]graph.Stage{stage("A", "batchsource"), stage("T", "transform"), stage("B", "realtimesource"), stage("S1", "batchsink"), stage("S2", "sparksink")},
			false, []string{"A", "B"}, []string{"S1", "S2"},
		},
		{
			"duplicate names collapse",
			[]graph.Stage{stage("A", "batchsource"), stage("A", "batchsource"), stage("S", "batchsink")},
			false, []string{"A"}, []string{"S"},
		},
		{
			"actions and conditions excluded",
			[]graph.Stage{stage("A", "batchsource"), stage("Act", "action"), stage("Cond", "condition"), stage("S", "batchsink")},
			false, []string{"A"}, []string{"S"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := graph.Pipeline{Config: graph.Config{Stages: tt.stages}}
			cfg, err := DeriveConfig(p, graph.DefaultPluginRoles(), map[string]string{"k": "v"})
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeNoSourceOrSink) {
					t.Fatalf("expected NO_SOURCE_OR_SINK, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if !slices.Equal(cfg.StartStages, tt.wantStart) || !slices.Equal(cfg.EndStages, tt.wantEnd) {
				t.Errorf("got start=%v end=%v", cfg.StartStages, cfg.EndStages)
			}
			if cfg.RuntimeArgs["k"] != "v" {
				t.Errorf("runtime args not carried: %v", cfg.RuntimeArgs)
			}
		})
	}
}

func TestBuildPayload(t *testing.T) {
	cfg := Config{StartStages: []string{"A"}, EndStages: []string{"B"}}
	tests := []struct {
		artifact    string
		wantProgram string
		wantType    string
		wantTimeout bool
	}{
		{ArtifactDataPipeline, "DataPipelineWorkflow", "Workflow", false},
		{ArtifactDataStreams, "DataStreamsSparkStreaming", "Spark", true},
		{"custom-app", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.artifact, func(t *testing.T) {
			p := graph.Pipeline{
				Name:     "p",
				Artifact: graph.Artifact{Name: tt.artifact, Version: "1", Scope: "SYSTEM"},
				UI:       json.RawMessage(`{"nodes":[]}`),
			}
			out, err := BuildPayload(p, cfg, 0)
			if err != nil {
				t.Fatal(err)
			}
			if out.UI != nil {
				t.Error("editor state must not be submitted")
			}
			var sec map[string]any
			ok, err := out.Config.Get("preview", &sec)
			if !ok || err != nil {
				t.Fatalf("preview section missing: %v", err)
			}
			if ds, ok := sec["realDatasets"].([]any); !ok || len(ds) != 0 {
				t.Errorf("expected empty realDatasets, got %v", sec["realDatasets"])
			}
			if args, ok := sec["runtimeArgs"].(map[string]any); !ok || len(args) != 0 {
				t.Errorf("expected empty runtimeArgs object, got %v", sec["runtimeArgs"])
			}
			name, _ := sec["programName"].(string)
			typ, _ := sec["programType"].(string)
			if name != tt.wantProgram || typ != tt.wantType {
				t.Errorf("program = %q/%q", name, typ)
			}
			timeout, has := sec["timeout"]
			if has != tt.wantTimeout {
				t.Errorf("timeout present = %v", has)
			}
			if tt.wantTimeout && timeout.(float64) != DefaultStreamingTimeout {
				t.Errorf("timeout = %v", timeout)
			}
		})
	}
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		status Status
		fixed  bool
		legacy bool
	}{
		{StatusRunning, true, false},
		{StatusStarted, true, false},
		{StatusPending, true, false},
		{StatusCompleted, false, false},
		{StatusFailed, false, false},
		{"DEPLOY_FAILED", false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := IsActive(tt.status, false); got != tt.fixed {
				t.Errorf("IsActive(%s) = %v", tt.status, got)
			}
			if got := IsActive(tt.status, true); got != tt.legacy {
				t.Errorf("legacy IsActive(%s) = %v", tt.status, got)
			}
		})
	}
}

func TestOutcomeNotification(t *testing.T) {
	tests := []struct {
		name     string
		pipeline string
		status   Status
		typ      notify.Type
		want     string
	}{
		{"completed", "Sales ETL", StatusCompleted, notify.Success, `Preview of pipeline "Sales ETL" is finished.`},
		{"completed unnamed", "", StatusCompleted, notify.Success, "Pipeline preview is finished."},
		{"stopped", "Sales ETL", StatusStopped, notify.Success, `Preview of pipeline "Sales ETL" was stopped successfully.`},
		{"killed", "", StatusKilled, notify.Success, "Pipeline preview was stopped successfully."},
		{"failed", "Sales ETL", StatusFailed, notify.Danger, `Preview of pipeline "Sales ETL" failed. Please check logs for more information.`},
		{"unknown", "", "SUSPENDED", notify.Danger, "Pipeline preview failed. Please check logs for more information."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := OutcomeNotification(tt.pipeline, tt.status)
			if n.Type != tt.typ || n.Content != tt.want {
				t.Errorf("got %s %q", n.Type, n.Content)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{9*time.Second + 900*time.Millisecond, "00:09"},
		{65 * time.Second, "01:05"},
		{125 * time.Minute, "125:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d).String(); got != tt.want {
			t.Errorf("FormatDuration(%v) = %s, want %s", tt.d, got, tt.want)
		}
	}
	if IdleDuration().String() != "--:--" {
		t.Error("unexpected placeholder")
	}
}

func TestSubmit_NoSourceMakesNoCall(t *testing.T) {
	h := newHarness(t, newProvider("p", stage("T", "transform"), stage("S", "batchsink")))

	_, err := h.c.Submit(context.Background(), nil)
	if !errors.Is(err, errors.ErrCodeNoSourceOrSink) {
		t.Fatalf("expected NO_SOURCE_OR_SINK, got %v", err)
	}
	if h.runs.submitCount() != 0 {
		t.Error("no submission may be made for an invalid preview")
	}
	if h.c.State() != StateIdle {
		t.Errorf("state = %s", h.c.State())
	}
	notes := h.notes.all()
	if len(notes) != 1 || notes[0].Type != notify.Danger {
		t.Errorf("expected one danger notification, got %v", notes)
	}
}

func TestSubmit_CompletedOnNextPoll(t *testing.T) {
	h := newHarness(t, salesETL())

	run, err := h.c.Submit(context.Background(), map[string]string{"input": "/data"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if run.ID != "run-1" || run.Status != StatusPending {
		t.Errorf("unexpected run %+v", run)
	}
	if h.c.State() != StateRunning {
		t.Fatalf("state = %s", h.c.State())
	}
	if p := h.poller.latest(); p.path != "/previews/run-1/status" || p.interval != DefaultPollInterval {
		t.Errorf("poll started with %s every %v", p.path, p.interval)
	}
	if h.clock.liveTimers() != 1 {
		t.Fatal("expected the duration timer to run")
	}

	h.clock.advance(65 * time.Second)
	if d := h.c.Snapshot().Duration; d.Minutes != "01" || d.Seconds != "05" {
		t.Errorf("duration = %v", d)
	}

	h.poller.tick(StatusCompleted)

	if h.c.State() != StateIdle {
		t.Errorf("state = %s", h.c.State())
	}
	if h.clock.liveTimers() != 0 {
		t.Error("duration timer still running")
	}
	if h.poller.active() != 0 {
		t.Error("poll still running")
	}
	notes := h.notes.all()
	if len(notes) != 1 || notes[0].Content != `Preview of pipeline "Sales ETL" is finished.` || notes[0].Type != notify.Success {
		t.Errorf("unexpected notifications %v", notes)
	}
	snap := h.c.Snapshot()
	if snap.LastRun == nil || snap.LastRun.Status != StatusCompleted || snap.Run != nil {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestSubmit_PayloadAndPersistence(t *testing.T) {
	h := newHarness(t, salesETL())
	if _, err := h.c.Submit(context.Background(), map[string]string{"input": "/data"}); err != nil {
		t.Fatal(err)
	}

	payload := h.runs.submits[0]
	var cfg Config
	if ok, err := payload.Config.Get("preview", &cfg); !ok || err != nil {
		t.Fatalf("payload has no preview section: %v", err)
	}
	if !slices.Equal(cfg.StartStages, []string{"File"}) || !slices.Equal(cfg.EndStages, []string{"Table"}) || cfg.RuntimeArgs["input"] != "/data" {
		t.Errorf("unexpected preview section %+v", cfg)
	}

	ctx := context.Background()
	draft, _ := h.state.Load(ctx, store.LastDraftID)
	previewID, _ := h.state.Load(ctx, store.LastPreviewID)
	if draft == nil || *draft != "draft-1" || previewID == nil || *previewID != "run-1" {
		t.Errorf("persisted draft=%v preview=%v", draft, previewID)
	}
	if h.c.PreviewID() != "run-1" {
		t.Errorf("PreviewID = %s", h.c.PreviewID())
	}
}

func TestPoll_ActiveStatusesKeepRunning(t *testing.T) {
	h := newHarness(t, salesETL())
	h.c.Submit(context.Background(), nil)

	for _, s := range []Status{StatusRunning, StatusStarted, StatusPending, StatusRunning} {
		h.poller.tick(s)
		if h.c.State() != StateRunning {
			t.Fatalf("status %s ended the run", s)
		}
	}
	if got := h.c.Snapshot().Run.Status; got != StatusRunning {
		t.Errorf("run status = %s", got)
	}
	if len(h.notes.all()) != 0 {
		t.Error("no notification expected while running")
	}
}

func TestPoll_TerminalStatuses(t *testing.T) {
	tests := []struct {
		status Status
		typ    notify.Type
	}{
		{StatusStopped, notify.Success},
		{StatusKilled, notify.Success},
		{StatusFailed, notify.Danger},
		{"RUN_FAILED", notify.Danger},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			h := newHarness(t, newProvider("", stage("A", "batchsource"), stage("B", "batchsink")))
			h.c.Submit(context.Background(), nil)
			h.poller.tick(tt.status)

			if h.c.State() != StateIdle {
				t.Errorf("state = %s", h.c.State())
			}
			notes := h.notes.all()
			if len(notes) != 1 || notes[0].Type != tt.typ {
				t.Fatalf("unexpected notifications %v", notes)
			}
			if notes[0].Content[:len("Pipeline preview")] != "Pipeline preview" {
				t.Errorf("expected placeholder subject, got %q", notes[0].Content)
			}
		})
	}
}

func TestPoll_LegacyStatusCheckEndsOnFirstPoll(t *testing.T) {
	h := newHarness(t, salesETL(), func(o *Options) { o.LegacyStatusCheck = true })
	h.c.Submit(context.Background(), nil)
	h.poller.tick(StatusRunning)

	if h.c.State() != StateIdle {
		t.Fatalf("legacy check should end the run, state = %s", h.c.State())
	}
	notes := h.notes.all()
	if len(notes) != 1 || notes[0].Type != notify.Danger {
		t.Errorf("unexpected notifications %v", notes)
	}
}

func TestPoll_ErrorStopsEverything(t *testing.T) {
	h := newHarness(t, salesETL())
	h.c.Submit(context.Background(), nil)
	h.poller.fail(stderrors.New("connection reset"))

	if h.c.State() != StateIdle {
		t.Errorf("state = %s", h.c.State())
	}
	if h.clock.liveTimers() != 0 || h.poller.active() != 0 {
		t.Error("timers left running after poll error")
	}
	notes := h.notes.all()
	if len(notes) != 1 || notes[0].Content != "Pipeline preview failed : connection reset" {
		t.Errorf("unexpected notifications %v", notes)
	}
	if h.c.Snapshot().LastError != "Pipeline preview failed : connection reset" {
		t.Errorf("LastError = %q", h.c.Snapshot().LastError)
	}
}

func TestSubmit_RejectedVerbatimWithoutRetry(t *testing.T) {
	h := newHarness(t, salesETL())
	h.runs.submitFn = func(context.Context) (RunHandle, error) {
		return RunHandle{}, errors.SubmissionFailed("Plugin 'Table' not found", nil)
	}

	_, err := h.c.Submit(context.Background(), nil)
	if !errors.Is(err, errors.ErrCodeSubmissionFailed) {
		t.Fatalf("expected SUBMISSION_FAILED, got %v", err)
	}
	if h.runs.submitCount() != 1 {
		t.Errorf("expected exactly one attempt, got %d", h.runs.submitCount())
	}
	if h.c.State() != StateIdle || h.poller.latest() != nil || h.clock.liveTimers() != 0 {
		t.Error("rejected submission must not start a run")
	}
	notes := h.notes.all()
	if len(notes) != 1 || notes[0].Content != "Plugin 'Table' not found" {
		t.Errorf("unexpected notifications %v", notes)
	}
}

func TestSubmit_PlainErrorWrapped(t *testing.T) {
	h := newHarness(t, salesETL())
	h.runs.submitFn = func(context.Context) (RunHandle, error) {
		return RunHandle{}, stderrors.New("dial tcp: refused")
	}
	_, err := h.c.Submit(context.Background(), nil)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeSubmissionFailed || appErr.Message != "dial tcp: refused" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestSubmit_BusyWhileRunning(t *testing.T) {
	h := newHarness(t, salesETL())
	h.c.Submit(context.Background(), nil)
	_, err := h.c.Submit(context.Background(), nil)
	if !errors.Is(err, errors.ErrCodePreviewBusy) {
		t.Errorf("expected PREVIEW_BUSY, got %v", err)
	}
	if h.runs.submitCount() != 1 {
		t.Error("busy submit must not reach the backend")
	}
}

func TestStop_InFlightPollIgnored(t *testing.T) {
	h := newHarness(t, salesETL())
	h.c.Submit(context.Background(), nil)
	h.poller.tick(StatusRunning)

	timerStoppedBeforeAck := false
	h.runs.stopFn = func(context.Context, string) error {
		timerStoppedBeforeAck = h.clock.liveTimers() == 0
		if h.c.Snapshot().LoadingLabel != LabelStopping {
			t.Error("expected Stopping label while the stop is in flight")
		}
		// A poll response already in flight arrives during the stop.
		h.poller.tick(StatusFailed)
		return nil
	}

	if err := h.c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !timerStoppedBeforeAck {
		t.Error("duration timer must stop before the backend acknowledges")
	}
	// And one arriving after the stop completed.
	h.poller.tick(StatusCompleted)

	if calls := h.runs.stopCalls(); !slices.Equal(calls, []string{"run-1"}) {
		t.Errorf("stop calls = %v", calls)
	}
	snap := h.c.Snapshot()
	if snap.State != StateIdle || snap.LastRun == nil || snap.LastRun.Status != StatusStopped {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	notes := h.notes.all()
	if len(notes) != 1 || notes[0].Content != `Preview of pipeline "Sales ETL" was stopped successfully.` {
		t.Errorf("unexpected notifications %v", notes)
	}
}

func TestStop_Failure(t *testing.T) {
	h := newHarness(t, salesETL())
	h.c.Submit(context.Background(), nil)
	h.runs.stopFn = func(context.Context, string) error { return stderrors.New("503") }

	err := h.c.Stop(context.Background())
	if !errors.Is(err, errors.ErrCodeStopFailed) {
		t.Fatalf("expected STOP_FAILED, got %v", err)
	}
	if h.c.State() != StateIdle {
		t.Errorf("state = %s", h.c.State())
	}
	notes := h.notes.all()
	if len(notes) != 1 || notes[0].Type != notify.Danger {
		t.Errorf("unexpected notifications %v", notes)
	}
}

func TestStop_NoopWhenIdle(t *testing.T) {
	h := newHarness(t, salesETL())
	if err := h.c.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(h.runs.stopCalls()) != 0 || len(h.notes.all()) != 0 {
		t.Error("idle stop must do nothing")
	}
}

func TestStop_WhileSubmitting(t *testing.T) {
	h := newHarness(t, salesETL())
	entered := make(chan struct{})
	release := make(chan struct{})
	h.runs.submitFn = func(ctx context.Context) (RunHandle, error) {
		close(entered)
		<-release
		return RunHandle{ID: "late-run"}, nil
	}

	errc := make(chan error, 1)
	go func() {
		_, err := h.c.Submit(context.Background(), nil)
		errc <- err
	}()
	<-entered
	if s := h.c.Snapshot(); s.State != StateSubmitting || s.LoadingLabel != LabelStarting {
		t.Errorf("unexpected snapshot while submitting %+v", s)
	}
	if err := h.c.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.c.State() != StateIdle {
		t.Errorf("state = %s", h.c.State())
	}
	close(release)

	if err := <-errc; !stderrors.Is(err, ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
	if calls := h.runs.stopCalls(); !slices.Equal(calls, []string{"late-run"}) {
		t.Errorf("late run should be stopped, stop calls = %v", calls)
	}
	if h.poller.latest() != nil {
		t.Error("abandoned submission must not start polling")
	}
}

func TestDispose_Idempotent(t *testing.T) {
	h := newHarness(t, salesETL())
	var hookCalls int
	h.c.OnDispose(func() { hookCalls++ })
	h.c.Submit(context.Background(), nil)

	var snaps []Snapshot
	h.c.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	h.c.Dispose()
	h.c.Dispose()
	if err := h.c.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if hookCalls != 1 {
		t.Errorf("hook ran %d times", hookCalls)
	}
	if h.provider.unsubs != 1 {
		t.Errorf("provider unsubscribed %d times", h.provider.unsubs)
	}
	if calls := h.runs.stopCalls(); !slices.Equal(calls, []string{"run-1"}) {
		t.Errorf("stop calls = %v", calls)
	}
	if h.clock.liveTimers() != 0 || h.poller.active() != 0 {
		t.Error("timers left running after dispose")
	}
	if len(h.notes.all()) != 0 {
		t.Errorf("dispose must not notify, got %v", h.notes.all())
	}
	if len(snaps) != 1 || snaps[0].State != StateIdle || snaps[0].Duration != IdleDuration() {
		t.Errorf("expected one reset snapshot, got %+v", snaps)
	}

	// Late responses and calls after dispose are inert.
	h.poller.tick(StatusCompleted)
	if len(h.notes.all()) != 0 {
		t.Error("poll response after dispose produced a notification")
	}
	if _, err := h.c.Submit(context.Background(), nil); !stderrors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed, got %v", err)
	}
	late := false
	h.c.OnDispose(func() { late = true })
	if !late {
		t.Error("hook registered after dispose should run immediately")
	}
}

func TestDispose_DoesNotWaitForSlowStop(t *testing.T) {
	h := newHarness(t, salesETL())
	release := make(chan struct{})
	h.runs.stopFn = func(ctx context.Context, _ string) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}
	if _, err := h.c.Submit(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	disposed := make(chan struct{})
	go func() {
		h.c.Dispose()
		close(disposed)
	}()
	select {
	case <-disposed:
	case <-time.After(time.Second):
		t.Fatal("Dispose blocked on the backend stop")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.c.Wait(ctx); !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait while the stop is pending = %v", err)
	}

	close(release)
	if err := h.c.Wait(context.Background()); err != nil {
		t.Errorf("Wait: %v", err)
	}
	if calls := h.runs.stopCalls(); !slices.Equal(calls, []string{"run-1"}) {
		t.Errorf("stop calls = %v", calls)
	}
}

func TestResume(t *testing.T) {
	h := newHarness(t, salesETL())
	if !h.c.Resume("old-run") {
		t.Fatal("Resume returned false")
	}
	if h.c.Resume("other") {
		t.Error("second Resume should be refused while running")
	}
	snap := h.c.Snapshot()
	if snap.State != StateRunning || snap.PreviewID != "old-run" || snap.Duration != IdleDuration() {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	h.clock.advance(time.Minute)
	if h.c.Snapshot().Duration != IdleDuration() {
		t.Error("resumed run has no start time and keeps the placeholder")
	}
	h.poller.tick(StatusCompleted)
	if h.c.State() != StateIdle {
		t.Errorf("state = %s", h.c.State())
	}
}

func TestSubscribe_AndConfigChange(t *testing.T) {
	h := newHarness(t, salesETL())
	var got []Snapshot
	unsub := h.c.Subscribe(func(s Snapshot) { got = append(got, s) })

	h.provider.rename("Renamed")
	if len(got) != 1 || got[0].PipelineName != "Renamed" {
		t.Fatalf("expected rename snapshot, got %+v", got)
	}
	h.c.Submit(context.Background(), nil)
	if got[len(got)-1].State != StateRunning {
		t.Errorf("last snapshot state = %s", got[len(got)-1].State)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Version <= got[i-1].Version {
			t.Errorf("versions not increasing: %d then %d", got[i-1].Version, got[i].Version)
		}
	}

	unsub()
	n := len(got)
	h.poller.tick(StatusCompleted)
	if len(got) != n {
		t.Error("unsubscribed callback still called")
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error without collaborators")
	}
}
