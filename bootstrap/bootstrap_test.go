package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/pipestudio/cdap"
	"github.com/kbukum/pipestudio/component"
	"github.com/kbukum/pipestudio/config"
	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/notify"
)

func newTestApp(t *testing.T, cfg *config.Studio, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop()), WithSummaryWriter(nil), WithGracefulTimeout(2 * time.Second)}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t, nil, WithOffline())

	if app.Name != "pipestudio" {
		t.Errorf("expected default name, got %q", app.Name)
	}
	if app.Version == "" {
		t.Error("expected a version")
	}
	if app.Backend == nil || app.Feed == nil || app.Summary == nil {
		t.Error("expected backend client, feed and summary")
	}
	if app.State != nil || app.Telemetry != nil {
		t.Error("infrastructure should not start before Start")
	}
	for _, name := range []string{TelemetryComponent, StateComponent} {
		if app.Components.Get(name) == nil {
			t.Errorf("component %s not registered", name)
		}
	}
	if app.Components.Get(cdap.ServiceName) != nil {
		t.Error("offline app should not register the backend check")
	}
}

func TestNewApp_RegistersBackendOnline(t *testing.T) {
	app := newTestApp(t, &config.Studio{})
	if app.Components.Get(cdap.ServiceName) == nil {
		t.Error("expected the backend component")
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Studio
	}{
		{"environment", &config.Studio{Environment: "qa"}},
		{"state driver", &config.Studio{State: config.StateConfig{Driver: "etcd"}}},
		{"backend url", &config.Studio{Backend: config.BackendConfig{BaseURL: "not a url"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewApp(tt.cfg, WithLogger(logger.Nop())); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRunTask_Lifecycle(t *testing.T) {
	app := newTestApp(t, nil, WithOffline())

	var order []string
	record := func(step string) Hook {
		return func(context.Context) error {
			order = append(order, step)
			return nil
		}
	}
	app.OnStart(record("start"))
	app.OnConfigure(func(_ context.Context, a *App) error {
		order = append(order, "configure")
		if a.State == nil {
			t.Error("state backend should be up during configure")
		}
		return nil
	})
	app.OnReady(record("ready"))
	app.OnStop(record("stop"))

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		if app.PreviewMetrics == nil || app.HTTPMetrics == nil {
			t.Error("metrics should be created by the telemetry component")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}

	want := []string{"start", "configure", "ready", "task", "stop"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestRunTask_ReturnsTaskError(t *testing.T) {
	app := newTestApp(t, nil, WithOffline())
	boom := errors.New("boom")
	if err := app.RunTask(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestStart_Twice(t *testing.T) {
	app := newTestApp(t, nil, WithOffline())
	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer app.Shutdown()
	if err := app.Start(ctx); err == nil {
		t.Error("expected an error starting twice")
	}
}

func TestStart_ConfigureFailureStopsInfrastructure(t *testing.T) {
	app := newTestApp(t, nil, WithOffline())
	var stopped bool
	app.OnStop(func(context.Context) error {
		stopped = true
		return nil
	})
	app.OnConfigure(func(context.Context, *App) error { return errors.New("no session") })

	if err := app.Start(context.Background()); err == nil {
		t.Fatal("expected configure error")
	}
	if !stopped {
		t.Error("expected shutdown after a failed configure")
	}
	if err := app.Shutdown(); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}

func TestStart_BackendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := &config.Studio{Backend: config.BackendConfig{BaseURL: srv.URL, Timeout: time.Second}}
	app := newTestApp(t, cfg)
	if err := app.Start(context.Background()); err == nil {
		app.Shutdown()
		t.Fatal("expected start to fail when the backend does not answer")
	}
}

func TestStart_BackendReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	cfg := &config.Studio{Backend: config.BackendConfig{BaseURL: srv.URL, Timeout: time.Second}}
	app := newTestApp(t, cfg)
	if err := app.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("ReadyCheck: %v", err)
	}
	if err := app.Shutdown(); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestOpenSession_RequiresStart(t *testing.T) {
	app := newTestApp(t, nil, WithOffline())
	if _, err := app.OpenSession(context.Background(), ""); err == nil {
		t.Error("expected an error before Start")
	}
}

func TestOpenSession_DraftRoundTrip(t *testing.T) {
	app := newTestApp(t, nil, WithOffline())

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		s, err := app.OpenSession(ctx, "")
		if err != nil {
			return err
		}
		s.Store().Update(func(p *graph.Pipeline) { p.Name = "Sales_ETL" })
		id, err := s.SaveDraft(ctx)
		if err != nil {
			return err
		}

		reopened, err := app.OpenSession(ctx, id)
		if err != nil {
			return err
		}
		if reopened.Store().Name() != "Sales_ETL" || reopened.Store().DraftID() != id {
			t.Errorf("reopened draft = %q (%s)", reopened.Store().Name(), reopened.Store().DraftID())
		}
		if app.Components.Get("session-2") == nil {
			t.Error("second session should be registered under its own name")
		}
		if len(app.Sessions()) != 2 {
			t.Errorf("sessions = %d", len(app.Sessions()))
		}

		if last, err := app.LastDraftID(ctx); err != nil || last != id {
			t.Errorf("LastDraftID = %q, %v", last, err)
		}
		if _, err := app.OpenSession(ctx, "missing"); err == nil {
			t.Error("expected an error for a missing draft")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	if len(app.Sessions()) != 0 {
		t.Error("sessions should be released on shutdown")
	}
}

func TestNotifier_FansOut(t *testing.T) {
	var shown []notify.Notification
	app := newTestApp(t, nil, WithOffline(), WithNotifier(notify.Func(func(n notify.Notification) {
		shown = append(shown, n)
	})))

	app.notifier().Show(notify.SuccessNote("Draft saved"))
	if len(shown) != 1 || shown[0].Content != "Draft saved" {
		t.Errorf("extra notifier got %v", shown)
	}
	if last, ok := app.Feed.Last(); !ok || last.Content != "Draft saved" {
		t.Errorf("feed last = %+v, %v", last, ok)
	}
}

func TestArtifacts(t *testing.T) {
	cfg := &config.Studio{Artifacts: []config.ArtifactConfig{{Name: "cdap-data-streams", Version: "6.9.0"}}}
	app := newTestApp(t, cfg, WithOffline())

	got := app.Artifacts().KnownArtifacts(context.Background())
	want := []graph.Artifact{{Name: "cdap-data-streams", Version: "6.9.0", Scope: "SYSTEM"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("artifacts = %v", got)
	}
	if app.DefaultArtifact() != want[0] {
		t.Errorf("default artifact = %v", app.DefaultArtifact())
	}

	bare := newTestApp(t, nil, WithOffline())
	if a := bare.DefaultArtifact(); a.Name != "cdap-data-pipeline" || a.Version != DefaultArtifactVersion {
		t.Errorf("default artifact without config = %v", a)
	}
}

func TestArtifacts_BackendFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &config.Studio{Backend: config.BackendConfig{BaseURL: srv.URL, Timeout: time.Second}}
	app := newTestApp(t, cfg)
	got := app.Artifacts().KnownArtifacts(context.Background())
	if len(got) != 1 || got[0] != app.DefaultArtifact() {
		t.Errorf("expected the default artifact as fallback, got %v", got)
	}
}

func TestSummary_Write(t *testing.T) {
	r := component.NewRegistry()
	_ = r.Register(&component.Func{ComponentName: "state", Desc: component.Description{Name: "State", Type: "state", Details: "memory"}})
	_ = r.Register(&component.Func{ComponentName: "cdap", Check: func(context.Context) error { return errors.New("connection refused") }})

	s := NewSummary("pipestudio", "v1.2.0")
	s.SetStartupDuration(1500 * time.Millisecond)
	s.TrackEndpoint("127.0.0.1:8089")

	var buf bytes.Buffer
	s.Write(context.Background(), &buf, r)
	out := buf.String()
	for _, want := range []string{
		"pipestudio v1.2.0 started in 1.50s",
		"├── ✓ State [state]: memory",
		"└── ✗ cdap (connection refused)",
		"Listening on 127.0.0.1:8089",
		"(1/2 healthy)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewSummary("pipestudio", "dev").Write(context.Background(), &buf, component.NewRegistry())
	if !strings.Contains(buf.String(), "No components registered") {
		t.Errorf("unexpected summary:\n%s", buf.String())
	}
}
