package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/pipestudio/api"
	"github.com/kbukum/pipestudio/bootstrap"
)

func (c *cli) serveCmd() *cobra.Command {
	var (
		draftID string
		host    string
		port    int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a studio session over the control API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.newApp(false, bootstrap.WithSummaryWriter(c.errOut))
			if err != nil {
				return err
			}
			if host != "" {
				app.Cfg.Server.Host = host
			}
			if port != 0 {
				app.Cfg.Server.Port = port
			}
			app.OnConfigure(func(ctx context.Context, a *bootstrap.App) error {
				s, err := a.OpenSession(ctx, draftID)
				if err != nil {
					return err
				}
				srv := api.New(a.Cfg.Server, a.HTTPMetrics, a.Logger)
				srv.RegisterDefaultEndpoints(a.Name, a.Components.HealthAll)
				srv.Mount(api.NewHandler(s, a.Feed, a.Artifacts()))
				a.Summary.TrackEndpoint("http://" + a.Cfg.Server.Addr() + "/api/v1")
				return a.Components.Register(srv)
			})
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&draftID, "draft", "", "open this draft instead of a new pipeline")
	cmd.Flags().StringVar(&host, "host", "", "override server.host")
	cmd.Flags().IntVar(&port, "port", 0, "override server.port")
	return cmd
}
