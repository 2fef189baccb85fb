package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kbukum/pipestudio/bootstrap"
	"github.com/kbukum/pipestudio/config"
	"github.com/kbukum/pipestudio/graph"
	"github.com/kbukum/pipestudio/studio"
)

const serviceName = "pipestudio"

type cli struct {
	configFile string
	envFile    string
	logLevel   string
	offline    bool
	noColor    bool

	out    io.Writer
	errOut io.Writer

	// appOptions are appended to every app; tests use it to silence logs.
	appOptions []bootstrap.Option
}

func newRootCmd(out, errOut io.Writer, opts ...bootstrap.Option) *cobra.Command {
	c := &cli{out: out, errOut: errOut, appOptions: opts}

	root := &cobra.Command{
		Use:   serviceName,
		Short: "Author, validate and preview data pipelines",
		Long: `pipestudio edits pipeline documents, keeps drafts, and runs previews
against the pipeline backend. Run "pipestudio serve" to drive the same
session over the control API.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configFile, "config", "c", "", "config file (default: ./cmd/pipestudio/config.yml, ./config/config.yml or ./config.yml)")
	pf.StringVar(&c.envFile, "env", "", ".env file to load before reading the environment")
	pf.StringVar(&c.logLevel, "log-level", "", "override logging.level")
	pf.BoolVar(&c.offline, "offline", false, "work without the pipeline backend")
	pf.BoolVar(&c.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		c.previewCmd(),
		c.importCmd(),
		c.validateCmd(),
		c.exportCmd(),
		c.draftCmd(),
		c.serveCmd(),
		c.tokenCmd(),
		c.versionCmd(),
	)
	return root
}

func (c *cli) loadConfig() (*config.Studio, error) {
	opts := []config.LoaderOption{config.WithDefaults(config.StudioDefaults())}
	if c.configFile != "" {
		if _, err := os.Stat(c.configFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		opts = append(opts, config.WithConfigFile(c.configFile))
	}
	if c.envFile != "" {
		opts = append(opts, config.WithEnvFile(c.envFile))
	}

	var cfg config.Studio
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	return &cfg, nil
}

// newApp builds the app for one command. Offline commands never contact
// the backend; --offline makes every command offline.
func (c *cli) newApp(offline bool, opts ...bootstrap.Option) (*bootstrap.App, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	all := []bootstrap.Option{bootstrap.WithSummaryWriter(nil)}
	if offline || c.offline {
		all = append(all, bootstrap.WithOffline())
	}
	all = append(all, opts...)
	all = append(all, c.appOptions...)
	return bootstrap.NewApp(cfg, all...)
}

// runOffline runs fn on a fresh offline session.
func (c *cli) runOffline(ctx context.Context, draftID string, fn func(ctx context.Context, app *bootstrap.App, s *studio.Session) error) error {
	app, err := c.newApp(true)
	if err != nil {
		return err
	}
	return app.RunTask(ctx, func(ctx context.Context) error {
		s, err := app.OpenSession(ctx, draftID)
		if err != nil {
			return err
		}
		return fn(ctx, app, s)
	})
}

// importFile replaces the session's pipeline with the document at path.
func importFile(ctx context.Context, s *studio.Session, path string) (graph.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return graph.Pipeline{}, err
	}
	return s.Import(ctx, filepath.Base(path), data, func() studio.Choice { return studio.ChoiceDiscard })
}
