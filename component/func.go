package component

import "context"

// Func adapts plain functions to Component. Nil hooks are no-ops and a nil
// health check always reports healthy.
type Func struct {
	ComponentName string
	OnStart       func(ctx context.Context) error
	OnStop        func(ctx context.Context) error
	Check         func(ctx context.Context) error
	Desc          Description
}

// Name implements Component.
func (f *Func) Name() string { return f.ComponentName }

// Start implements Component.
func (f *Func) Start(ctx context.Context) error {
	if f.OnStart == nil {
		return nil
	}
	return f.OnStart(ctx)
}

// Stop implements Component.
func (f *Func) Stop(ctx context.Context) error {
	if f.OnStop == nil {
		return nil
	}
	return f.OnStop(ctx)
}

// Health implements Component.
func (f *Func) Health(ctx context.Context) Health {
	h := Health{Name: f.ComponentName, Status: StatusHealthy}
	if f.Check != nil {
		if err := f.Check(ctx); err != nil {
			h.Status = StatusUnhealthy
			h.Message = err.Error()
		}
	}
	return h
}

// Describe implements Describable.
func (f *Func) Describe() Description {
	d := f.Desc
	if d.Name == "" {
		d.Name = f.ComponentName
	}
	return d
}

var (
	_ Component   = (*Func)(nil)
	_ Describable = (*Func)(nil)
)
