package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "eventd %s (commit: %s, built: %s)\n",
				info.Version, info.Commit, info.Date)
		},
	}
}
