package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kbukum/pipestudio/bootstrap"
	"github.com/kbukum/pipestudio/notify"
	"github.com/kbukum/pipestudio/preview"
	"github.com/kbukum/pipestudio/studio"
	"github.com/kbukum/pipestudio/tui"
)

type watchOptions struct {
	plain bool
}

func (c *cli) previewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Run and watch preview runs",
	}
	cmd.AddCommand(c.previewRunCmd(), c.previewWatchCmd(), c.previewStopCmd())
	return cmd
}

func (w *watchOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&w.plain, "plain", false, "print notifications line by line instead of the interactive watcher")
}

func (c *cli) previewRunCmd() *cobra.Command {
	var (
		draftID string
		args    map[string]string
		wo      watchOptions
	)
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Submit a preview of a pipeline document or draft and watch it",
		Long: `run imports the document (or opens --draft), saves it as a draft so the
run can be resumed later, submits a preview and watches it until it ends.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, files []string) error {
			if len(files) == 0 && draftID == "" {
				return fmt.Errorf("preview run needs a file or --draft")
			}
			return c.runSession(cmd.Context(), wo, draftID, func(ctx context.Context, s *studio.Session) error {
				if len(files) == 1 {
					if _, err := importFile(ctx, s, files[0]); err != nil {
						return err
					}
				}
				if s.Store().IsDirty() || s.Store().DraftID() == "" {
					id, err := s.SaveDraft(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.errOut, "Draft saved: %s\n", id)
				}
				if len(args) > 0 {
					s.SetRuntimeArgs(args)
				}
				_, err := s.StartPreview(ctx)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&draftID, "draft", "", "preview a saved draft")
	cmd.Flags().StringToStringVar(&args, "arg", nil, "runtime argument key=value (repeatable)")
	wo.bind(cmd)
	return cmd
}

func (c *cli) previewWatchCmd() *cobra.Command {
	var (
		draftID string
		wo      watchOptions
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Resume watching the last preview of a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runSession(cmd.Context(), wo, draftID, requireActive)
		},
	}
	cmd.Flags().StringVar(&draftID, "draft", "", "draft whose preview to watch (default: the last saved draft)")
	wo.bind(cmd)
	return cmd
}

func (c *cli) previewStopCmd() *cobra.Command {
	var draftID string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running preview of a draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.newApp(false, bootstrap.WithNotifier(notify.NewTerminal(c.out, c.noColor)))
			if err != nil {
				return err
			}
			return app.RunTask(cmd.Context(), func(ctx context.Context) error {
				s, err := c.openResumable(ctx, app, draftID)
				if err != nil {
					return err
				}
				if err := requireActive(ctx, s); err != nil {
					return err
				}
				return s.StopPreview(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&draftID, "draft", "", "draft whose preview to stop (default: the last saved draft)")
	return cmd
}

// runSession opens a session on draftID (the last saved draft when empty),
// runs prepare and watches the preview until it ends.
func (c *cli) runSession(ctx context.Context, wo watchOptions, draftID string, prepare func(ctx context.Context, s *studio.Session) error) error {
	var opts []bootstrap.Option
	if wo.plain {
		opts = append(opts, bootstrap.WithNotifier(notify.NewTerminal(c.out, c.noColor)))
	}
	app, err := c.newApp(false, opts...)
	if err != nil {
		return err
	}
	return app.RunTask(ctx, func(ctx context.Context) error {
		s, err := c.openResumable(ctx, app, draftID)
		if err != nil {
			return err
		}
		if err := prepare(ctx, s); err != nil {
			return err
		}
		final, err := c.watch(ctx, app, s, wo)
		if err != nil {
			return err
		}
		return c.report(final)
	})
}

func (c *cli) openResumable(ctx context.Context, app *bootstrap.App, draftID string) (*studio.Session, error) {
	if draftID == "" {
		last, err := app.LastDraftID(ctx)
		if err != nil {
			return nil, err
		}
		draftID = last
	}
	return app.OpenSession(ctx, draftID)
}

func requireActive(_ context.Context, s *studio.Session) error {
	if !s.Coordinator().Snapshot().Active() {
		return fmt.Errorf("no preview is running for draft %q", s.Store().DraftID())
	}
	return nil
}

func (c *cli) watch(ctx context.Context, app *bootstrap.App, s *studio.Session, wo watchOptions) (preview.Snapshot, error) {
	if wo.plain {
		return waitIdle(ctx, s.Coordinator())
	}
	return tui.Run(ctx, tui.Options{
		Source:       s.Coordinator(),
		Feed:         app.Feed,
		Stop:         s.StopPreview,
		ExitWhenIdle: true,
	}, tea.WithOutput(c.out))
}

// waitIdle blocks until src reports an idle snapshot.
func waitIdle(ctx context.Context, src tui.SnapshotSource) (preview.Snapshot, error) {
	idle := make(chan preview.Snapshot, 1)
	unsubscribe := src.Subscribe(func(snap preview.Snapshot) {
		if !snap.Active() {
			select {
			case idle <- snap:
			default:
			}
		}
	})
	defer unsubscribe()

	if snap := src.Snapshot(); !snap.Active() {
		return snap, nil
	}
	select {
	case snap := <-idle:
		return snap, nil
	case <-ctx.Done():
		return src.Snapshot(), ctx.Err()
	}
}

// report prints the outcome of a watched run. Runs that failed or were
// killed make the command fail.
func (c *cli) report(snap preview.Snapshot) error {
	if snap.Active() {
		fmt.Fprintf(c.errOut, "Preview %s is still running; resume with: %s preview watch\n", snap.PreviewID, serviceName)
		return nil
	}
	if snap.LastRun == nil {
		if snap.LastError != "" {
			return fmt.Errorf("%s", snap.LastError)
		}
		return nil
	}
	fmt.Fprintf(c.out, "Preview %s %s after %s\n", snap.LastRun.ID, snap.LastRun.Status, snap.Duration)
	switch snap.LastRun.Status {
	case preview.StatusFailed, preview.StatusKilled:
		return fmt.Errorf("preview %s ended with status %s", snap.LastRun.ID, snap.LastRun.Status)
	}
	return nil
}
