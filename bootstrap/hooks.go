package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback run during startup or shutdown.
type Hook func(ctx context.Context) error

// ConfigureFunc runs once the infrastructure is up. It typically opens a
// session and registers the components that serve it; those are started
// when every ConfigureFunc has returned.
type ConfigureFunc func(ctx context.Context, app *App) error

// OnStart registers hooks that run after the infrastructure components are
// started, before configuration.
func (a *App) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnConfigure registers a configuration callback.
func (a *App) OnConfigure(fns ...ConfigureFunc) {
	a.onConfigure = append(a.onConfigure, fns...)
}

// OnReady registers hooks that run after the ready check, right before Run
// starts waiting for a signal or RunTask calls its task.
func (a *App) OnReady(hooks ...Hook) {
	a.onReady = append(a.onReady, hooks...)
}

// OnStop registers hooks that run during shutdown before sessions are
// disposed and components stopped.
func (a *App) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
