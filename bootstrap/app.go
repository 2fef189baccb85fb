package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/kbukum/pipestudio/cdap"
	"github.com/kbukum/pipestudio/component"
	"github.com/kbukum/pipestudio/config"
	"github.com/kbukum/pipestudio/logger"
	"github.com/kbukum/pipestudio/notify"
	"github.com/kbukum/pipestudio/observability"
	"github.com/kbukum/pipestudio/store"
	"github.com/kbukum/pipestudio/studio"
	"github.com/kbukum/pipestudio/version"
)

// Component names registered by NewApp.
const (
	TelemetryComponent = "telemetry"
	StateComponent     = "state"
)

// DefaultGracefulTimeout bounds shutdown when WithGracefulTimeout is not set.
const DefaultGracefulTimeout = 15 * time.Second

// feedSize is the number of notifications retained for late readers.
const feedSize = 100

// App is one pipestudio process.
//
// Telemetry, State and the metrics are nil until the infrastructure has
// been started by Start, Run or RunTask.
type App struct {
	Name       string
	Version    string
	Cfg        *config.Studio
	Components *component.Registry
	Logger     *logger.Logger
	Summary    *Summary

	Backend *cdap.Client
	Feed    *notify.Feed

	Telemetry      *observability.Providers
	State          *store.Backend
	PreviewMetrics *observability.PreviewMetrics
	HTTPMetrics    *observability.HTTPMetrics

	offline         bool
	notifiers       []notify.Notifier
	gracefulTimeout time.Duration
	summaryOut      io.Writer

	onStart     []Hook
	onConfigure []ConfigureFunc
	onReady     []Hook
	onStop      []Hook

	mu       sync.Mutex
	sessions []*studio.Session
	started  bool
}

// NewApp applies defaults to cfg, validates it, initializes the logger and
// registers the infrastructure components. Nothing is contacted until the
// app is started.
func NewApp(cfg *config.Studio, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = &config.Studio{}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := resolveOptions(opts)
	app := &App{
		Name:            cfg.Name,
		Version:         version.GetVersionInfo().Short(),
		Cfg:             cfg,
		Components:      component.NewRegistry(),
		Feed:            notify.NewFeed(feedSize),
		offline:         o.offline,
		notifiers:       o.notifiers,
		gracefulTimeout: DefaultGracefulTimeout,
		summaryOut:      os.Stderr,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.summaryOut != nil || o.quietSummary {
		app.summaryOut = o.summaryOut
	}

	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(cfg.Logging, cfg.Name)
		app.Logger = logger.GetGlobalLogger()
	}

	backend, err := cdap.New(cfg.Backend)
	if err != nil {
		return nil, err
	}
	app.Backend = backend

	if err := app.registerInfrastructure(); err != nil {
		return nil, err
	}
	app.Summary = NewSummary(app.Name, app.Version)
	return app, nil
}

// Offline reports whether the app runs without the backend.
func (a *App) Offline() bool { return a.offline }

func (a *App) registerInfrastructure() error {
	comps := []component.Component{
		&component.Func{
			ComponentName: TelemetryComponent,
			OnStart:       a.startTelemetry,
			OnStop: func(ctx context.Context) error {
				if a.Telemetry == nil {
					return nil
				}
				return a.Telemetry.Shutdown(ctx)
			},
			Desc: component.Description{Name: "Telemetry", Type: "telemetry", Details: telemetryDetails(a.Cfg.Observability)},
		},
		&component.Func{
			ComponentName: StateComponent,
			OnStart: func(ctx context.Context) error {
				b, err := store.NewBackend(ctx, a.Cfg.State)
				if err != nil {
					return err
				}
				a.State = b
				return nil
			},
			OnStop: func(context.Context) error {
				if a.State == nil {
					return nil
				}
				return a.State.Close()
			},
			Desc: component.Description{Name: "State", Type: "state", Details: stateDetails(a.Cfg.State)},
		},
	}
	if !a.offline {
		comps = append(comps, a.Backend.Component())
	}
	for _, c := range comps {
		if err := a.Components.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) startTelemetry(ctx context.Context) error {
	p, err := observability.Init(ctx, a.Cfg.Observability, observability.Resource{
		ServiceName:    a.Name,
		ServiceVersion: a.Version,
		Environment:    a.Cfg.Environment,
	})
	if err != nil {
		return err
	}
	a.Telemetry = p

	// The meters fall back to the global no-op provider when export is off.
	meter := observability.Meter(a.Name)
	if a.PreviewMetrics, err = observability.NewPreviewMetrics(meter); err != nil {
		return fmt.Errorf("preview metrics: %w", err)
	}
	if a.HTTPMetrics, err = observability.NewHTTPMetrics(meter); err != nil {
		return fmt.Errorf("http metrics: %w", err)
	}
	return nil
}

func telemetryDetails(cfg config.ObservabilityConfig) string {
	if !cfg.Enabled {
		return "disabled"
	}
	return fmt.Sprintf("otlp %s (sample %.2f)", cfg.Endpoint, cfg.SampleRate)
}

func stateDetails(cfg config.StateConfig) string {
	switch cfg.Driver {
	case store.DriverFile:
		return "file " + cfg.Path
	case store.DriverRedis:
		return "redis " + cfg.Redis.Addr
	}
	return cfg.Driver
}

// ReadyCheck verifies that all registered components are healthy.
func (a *App) ReadyCheck(ctx context.Context) error {
	var unhealthy []string
	for _, h := range a.Components.HealthAll(ctx) {
		if h.Status != component.StatusHealthy {
			detail := h.Name + "=" + string(h.Status)
			if h.Message != "" {
				detail += "(" + h.Message + ")"
			}
			unhealthy = append(unhealthy, detail)
		}
	}
	if len(unhealthy) > 0 {
		return fmt.Errorf("unhealthy components: %s", strings.Join(unhealthy, ", "))
	}
	return nil
}

// Run starts the app, blocks until SIGINT, SIGTERM or ctx cancellation, and
// shuts down.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	a.Logger.Info("Application ready, waiting for shutdown signal")
	a.WaitForSignal(ctx)
	return a.Shutdown()
}

// RunTask starts the app, runs task and shuts down when it returns. The
// task's context is cancelled on SIGINT or SIGTERM.
func (a *App) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("Received signal, cancelling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	taskErr := task(taskCtx)
	if stopErr := a.Shutdown(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// Start runs the startup sequence: infrastructure components, OnStart
// hooks, configuration callbacks and the components they registered, the
// ready check, OnReady hooks and the summary. A failure after the
// infrastructure is up shuts it down again.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return fmt.Errorf("bootstrap: %s already started", a.Name)
	}
	a.started = true
	a.mu.Unlock()

	begin := time.Now()
	a.Logger.Info("Starting application", logger.Fields("name", a.Name, "version", a.Version, "offline", a.offline))

	if err := a.Components.StartAll(ctx); err != nil {
		a.markStopped()
		return fmt.Errorf("initialization failed: %w", err)
	}

	if err := a.afterInfrastructure(ctx); err != nil {
		if stopErr := a.Shutdown(); stopErr != nil {
			a.Logger.Error("Shutdown after failed startup", logger.ErrorFields("bootstrap", stopErr))
		}
		return err
	}

	a.Summary.SetStartupDuration(time.Since(begin))
	a.DisplaySummary()
	return nil
}

func (a *App) afterInfrastructure(ctx context.Context) error {
	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook failed: %w", err)
	}
	for _, fn := range a.onConfigure {
		if err := fn(ctx, a); err != nil {
			return fmt.Errorf("configuration failed: %w", err)
		}
	}
	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("failed to start components: %w", err)
	}

	if err := a.ReadyCheck(ctx); err != nil {
		a.Logger.Warn("Ready check reported issues", logger.Fields(logger.FieldError, err.Error()))
	}
	if err := runHooks(ctx, a.onReady); err != nil {
		return fmt.Errorf("onReady hook failed: %w", err)
	}
	return nil
}

// DisplaySummary prints the startup summary with live health from the
// registry.
func (a *App) DisplaySummary() {
	if a.summaryOut == nil {
		return
	}
	a.Summary.Write(context.Background(), a.summaryOut, a.Components)
}

// WaitForSignal blocks until an OS interrupt/term signal or context
// cancellation.
func (a *App) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal", logger.Fields("signal", sig.String()))
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context cancelled, shutting down")
		return nil
	}
}

// Shutdown runs OnStop hooks, disposes open sessions and stops every
// component within the graceful timeout. Calling it on an app that is not
// running does nothing.
func (a *App) Shutdown() error {
	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	a.Logger.Info("Shutting down application", logger.Fields("timeout", a.gracefulTimeout.String()))
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("OnStop hook error", logger.Fields(logger.FieldError, err.Error()))
		shutdownErr = err
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("Shutdown completed with errors", logger.Fields(logger.FieldError, err.Error()))
		if shutdownErr == nil {
			shutdownErr = err
		}
	}
	a.markStopped()

	a.Logger.Info("Application shutdown complete")
	return shutdownErr
}

func (a *App) markStopped() {
	a.mu.Lock()
	a.started = false
	a.sessions = nil
	a.mu.Unlock()
}

// notifier fans notifications out to the feed, the log and any extra
// targets from WithNotifier.
func (a *App) notifier() notify.Notifier {
	m := notify.Multi{a.Feed, notify.NewLog(a.Logger.WithComponent("notify"))}
	return append(m, a.notifiers...)
}
