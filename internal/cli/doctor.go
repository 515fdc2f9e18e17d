package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edirooss/zrec-server/internal/infrastructure/devices"
	"github.com/edirooss/zrec-server/internal/service"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ok := true

			p, err := deps.platform()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "platform    %s\n", p.Name())

			if v, err := service.CheckFFmpeg(cmd.Context(), deps.Config.FFmpegPath); err != nil {
				fmt.Fprintf(out, "✗ ffmpeg    %s: %v\n", deps.Config.FFmpegPath, err)
				ok = false
			} else {
				fmt.Fprintf(out, "✓ ffmpeg    %s\n", v)
			}

			// Probe tools only improve device listing; missing ones are warnings.
			for _, t := range service.LookTools(devices.ProbeTools(p)) {
				if t.Found {
					fmt.Fprintf(out, "✓ %-9s %s\n", t.Name, t.Path)
				} else {
					fmt.Fprintf(out, "! %-9s not found (device listing falls back to defaults)\n", t.Name)
				}
			}

			if !ok {
				return fmt.Errorf("ffmpeg is required")
			}
			fmt.Fprintln(out, "ready to record")
			return nil
		},
	}
}
