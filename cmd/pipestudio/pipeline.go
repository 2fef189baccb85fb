package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/pipestudio/bootstrap"
	"github.com/kbukum/pipestudio/studio"
)

func (c *cli) importCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Check a pipeline document and optionally save it as a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOffline(cmd.Context(), "", func(ctx context.Context, _ *bootstrap.App, s *studio.Session) error {
				p, err := importFile(ctx, s, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Imported %s: %d stages, %d connections on %s\n",
					displayName(p.Name), len(p.Config.Stages), len(p.Config.Connections), p.Artifact)
				if !save {
					return nil
				}
				id, err := s.SaveDraft(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "Draft saved: %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "save the imported pipeline as a draft")
	return cmd
}

func (c *cli) validateCmd() *cobra.Command {
	var draftID string
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a pipeline document or a saved draft",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && draftID == "" {
				return fmt.Errorf("validate needs a file or --draft")
			}
			return c.runOffline(cmd.Context(), draftID, func(ctx context.Context, _ *bootstrap.App, s *studio.Session) error {
				if len(args) == 1 {
					if _, err := importFile(ctx, s, args[0]); err != nil {
						return err
					}
				}
				msgs, ok := s.Validate()
				for _, m := range msgs {
					fmt.Fprintf(c.out, "%s: %s\n", m.Type, m.Content)
				}
				if !ok {
					return fmt.Errorf("pipeline is not valid (%d problems)", len(msgs))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&draftID, "draft", "", "validate a saved draft instead of a file")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <draft-id>",
		Short: "Write a saved draft as a pipeline document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOffline(cmd.Context(), args[0], func(_ context.Context, _ *bootstrap.App, s *studio.Session) error {
				p, err := s.Store().ConfigForExport()
				if err != nil {
					return err
				}
				w := c.out
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				return writeJSON(w, p)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func displayName(name string) string {
	if name == "" {
		return "(unnamed)"
	}
	return name
}
