// Package cli implements the zrec command-line recorder.
package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/edirooss/zrec-server/internal/config"
	"github.com/edirooss/zrec-server/internal/infrastructure/devices"
	"github.com/edirooss/zrec-server/pkg/ffmpegcmd"
)

// Dependencies is filled in by the root command's persistent flags before any
// subcommand runs.
type Dependencies struct {
	Config  config.Config
	Log     *zap.Logger
	Verbose bool
	Debug   bool

	// Runner executes device probes; nil uses devices.ExecRunner.
	Runner devices.Runner
}

func (d *Dependencies) platform() (ffmpegcmd.Platform, error) {
	return ffmpegcmd.PlatformByName(d.Config.Platform, d.Config.Display)
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	var (
		configPath string
		platform   string
		display    string
		ffmpegPath string
	)

	rootCmd := &cobra.Command{
		Use:           "zrec",
		Short:         "Record the screen with ffmpeg",
		Long:          "zrec records the desktop, a single window or a camera, with optional microphone and system audio, by driving an ffmpeg process.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("platform") {
				cfg.Platform = platform
			}
			if cmd.Flags().Changed("display") {
				cfg.Display = display
			}
			if cmd.Flags().Changed("ffmpeg") {
				cfg.FFmpegPath = ffmpegPath
			}
			deps.Config = cfg

			if deps.Log == nil {
				deps.Log = newLogger(deps.Verbose)
			}
			return nil
		},
	}

	rootCmd.Version = config.Version
	rootCmd.SetVersionTemplate(versionLine() + "\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML config file")
	pf.StringVar(&platform, "platform", ffmpegcmd.PlatformAuto, "Capture platform: auto, gdigrab or x11grab")
	pf.StringVar(&display, "display", "", "X11 display (default $DISPLAY or :0)")
	pf.StringVar(&ffmpegPath, "ffmpeg", "ffmpeg", "ffmpeg executable")
	pf.BoolVarP(&deps.Verbose, "verbose", "v", false, "Log recorder internals")
	pf.BoolVar(&deps.Debug, "debug", false, "Dump full error chains")

	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewArgvCmd(deps))
	rootCmd.AddCommand(NewDevicesCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

func newLogger(verbose bool) *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.WarnLevel)
	if verbose {
		logConfig.Level.SetLevel(zap.DebugLevel)
	}
	return zap.Must(logConfig.Build())
}
