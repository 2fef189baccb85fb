package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/pipestudio/bootstrap"
	"github.com/kbukum/pipestudio/studio"
)

func (c *cli) draftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Manage saved drafts",
	}
	cmd.AddCommand(c.draftSaveCmd(), c.draftShowCmd(), c.draftLastCmd())
	return cmd
}

func (c *cli) draftSaveCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Save a pipeline document as a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOffline(cmd.Context(), "", func(ctx context.Context, _ *bootstrap.App, s *studio.Session) error {
				if _, err := importFile(ctx, s, args[0]); err != nil {
					return err
				}
				if id != "" {
					s.Store().SetDraftID(id)
				}
				saved, err := s.SaveDraft(ctx)
				if err != nil {
					return err
				}
				if s.InvalidName() {
					fmt.Fprintln(c.errOut, "warning: the pipeline name is missing or invalid")
				}
				fmt.Fprintln(c.out, saved)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "overwrite the draft with this id")
	return cmd
}

func (c *cli) draftShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOffline(cmd.Context(), args[0], func(_ context.Context, _ *bootstrap.App, s *studio.Session) error {
				p, err := s.Store().DisplayConfig()
				if err != nil {
					return err
				}
				return writeJSON(c.out, p)
			})
		},
	}
}

func (c *cli) draftLastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Print the id of the most recently saved draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := c.newApp(true)
			if err != nil {
				return err
			}
			return app.RunTask(cmd.Context(), func(ctx context.Context) error {
				id, err := app.LastDraftID(ctx)
				if err != nil {
					return err
				}
				if id == "" {
					return fmt.Errorf("no draft saved yet")
				}
				fmt.Fprintln(c.out, id)
				return nil
			})
		},
	}
}
