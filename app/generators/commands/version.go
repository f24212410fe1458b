package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrazmi/crudsmith/sdk/version"
)

// VersionCmd returns the version command.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "crudsmith-gen %s\n", version.String())
		},
	}
}
