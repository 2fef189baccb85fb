package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/pipestudio/version"
)

func (c *cli) versionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			info := version.GetVersionInfo()
			if asJSON {
				return writeJSON(c.out, info)
			}
			fmt.Fprintln(c.out, info.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
