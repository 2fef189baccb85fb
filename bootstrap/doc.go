// Package bootstrap wires a pipestudio process together: configuration,
// logging, the state backend, telemetry, and the pipeline backend client.
//
// Components are started in registration order and stopped in reverse on
// shutdown. Sessions opened with OpenSession are disposed before the
// infrastructure they depend on goes away.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	return app.RunTask(ctx, func(ctx context.Context) error {
//	    s, err := app.OpenSession(ctx, draftID)
//	    ...
//	})
package bootstrap
