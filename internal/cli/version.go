package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edirooss/zrec-server/internal/config"
)

func versionLine() string {
	return fmt.Sprintf("zrec %s (commit %s, built %s)", config.Version, config.GitCommit, config.BuildDate)
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// Skips config loading.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionLine())
		},
	}
}
