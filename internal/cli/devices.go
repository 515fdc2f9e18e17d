package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/edirooss/zrec-server/internal/infrastructure/devices"
)

func NewDevicesCmd(deps *Dependencies) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List capturable screens, cameras, audio sources and windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := deps.platform()
			if err != nil {
				return err
			}
			enum, err := devices.New(deps.Log, p, devices.Options{
				FFmpegPath: deps.Config.FFmpegPath,
				Display:    deps.Config.Display,
				Runner:     deps.Runner,
			})
			if err != nil {
				return err
			}
			inv, err := devices.Collect(cmd.Context(), enum)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(inv)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tID\tNAME\tDETAIL")
			for _, v := range inv.Video {
				fmt.Fprintf(tw, "video\t%s\t%s\t%s %s\n", v.ID, v.DisplayName, v.Kind, v.ResolutionHint)
			}
			for _, a := range inv.Microphones {
				fmt.Fprintf(tw, "microphone\t%s\t%s\t\n", a.ID, a.DisplayName)
			}
			for _, a := range inv.Loopback {
				fmt.Fprintf(tw, "loopback\t%s\t%s\t\n", a.ID, a.DisplayName)
			}
			for _, w := range inv.Windows {
				g := w.Geometry
				fmt.Fprintf(tw, "window\t%s\t%s\t%dx%d+%d+%d\n", w.TitleOrID, w.Title, g.Width, g.Height, g.X, g.Y)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the inventory as JSON")
	return cmd
}
