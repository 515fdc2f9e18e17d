package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edirooss/zrec-server/pkg/ffmpegcmd"
)

func NewArgvCmd(deps *Dependencies) *cobra.Command {
	var (
		flags  captureFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "argv",
		Short: "Print the ffmpeg command a recording would run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := deps.platform()
			if err != nil {
				return err
			}
			cfg, err := flags.configuration(cmd, p, time.Now())
			if err != nil {
				return err
			}

			c := ffmpegcmd.Synthesize(&cfg, p)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(c.Argv(deps.Config.FFmpegPath))
			}
			_, err = fmt.Fprintln(out, c.String(deps.Config.FFmpegPath))
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the argv as a JSON array")
	return cmd
}
