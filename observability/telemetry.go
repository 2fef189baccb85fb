package observability

import (
	"context"
	"errors"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/pipestudio/config"
)

// Providers holds the SDK providers installed by Init. Both are nil when
// observability is disabled.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// Init installs tracer and meter providers according to cfg. When
// cfg.Enabled is false it returns empty Providers and leaves the global
// no-op providers in place.
func Init(ctx context.Context, cfg config.ObservabilityConfig, res Resource) (*Providers, error) {
	p := &Providers{}
	if !cfg.Enabled {
		return p, nil
	}

	tp, err := InitTracer(ctx, TracerConfig{
		Resource:   res,
		Endpoint:   cfg.Endpoint,
		Insecure:   cfg.Insecure,
		SampleRate: cfg.SampleRate,
	})
	if err != nil {
		return nil, err
	}
	p.Tracer = tp

	mcfg := DefaultMeterConfig(res.ServiceName)
	mcfg.Resource = res
	mcfg.Endpoint = cfg.Endpoint
	mcfg.Insecure = cfg.Insecure
	mp, err := InitMeter(ctx, mcfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}
	p.Meter = mp
	return p, nil
}

// Enabled reports whether any provider was installed.
func (p *Providers) Enabled() bool { return p.Tracer != nil || p.Meter != nil }

// Shutdown flushes and stops the installed providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
