// Command pipestudio authors, validates and previews data pipelines from
// the terminal, or serves the studio over the control API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
