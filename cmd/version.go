package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Populated by the release build via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the linkhound version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "linkhound %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
