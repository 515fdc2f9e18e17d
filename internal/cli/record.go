package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/edirooss/zrec-server/internal/domain/capture"
	"github.com/edirooss/zrec-server/internal/infrastructure/processmgr"
	"github.com/edirooss/zrec-server/internal/service"
)

// failureLogLines is how much encoder output is shown when a recording fails.
const failureLogLines = 20

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var (
		flags    captureFlags
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record in the foreground (Ctrl+C to stop)",
		Long:  "Record in the foreground until Ctrl+C, SIGTERM or --duration. The encoder is asked to quit gracefully, then terminated, then killed.",
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

			logs := processmgr.NewLogManager(1)
			rec := service.NewRecorder(deps.Log, p, processmgr.NewExecSpawner(deps.Log, logs), service.RecorderOptions{
				Binary:  deps.Config.FFmpegPath,
				Timings: service.TimingsFromUnit(deps.Config.TimeUnit),
			})
			return record(cmd, rec, logs, cfg, duration)
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop automatically after this long (0 = until interrupted)")
	return cmd
}

func record(cmd *cobra.Command, rec *service.Recorder, logs *processmgr.LogManager, cfg capture.Configuration, limit time.Duration) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := rec.Start(cfg)
	if err != nil {
		return err
	}
	defer rec.Wait()

	out := cmd.OutOrStdout()
	unit := rec.Timings().Unit

	var timeout <-chan time.Time
	if limit > 0 {
		t := time.NewTimer(limit)
		defer t.Stop()
		timeout = t.C
	}

	interrupt := ctx.Done()
	requestStop := func(reason string) {
		interrupt, timeout = nil, nil
		if err := rec.Stop(); err == nil {
			fmt.Fprintf(out, "\nstopping (%s)...\n", reason)
		}
	}

	var result error
	for {
		select {
		case ev, ok := <-sess.Events():
			if !ok {
				return result
			}
			if err := printEvent(out, ev, unit, cfg.OutputPath); err != nil {
				if tail, found := logs.Tail(sess.ID(), failureLogLines); found && len(tail) > 0 {
					fmt.Fprintf(out, "--- ffmpeg output ---\n%s\n", strings.Join(tail, "\n"))
				}
				result = err
			}
		case <-interrupt:
			requestStop("interrupted")
		case <-timeout:
			requestStop("duration reached")
		}
	}
}

// printEvent renders one session event; terminal failures are returned.
func printEvent(w io.Writer, ev service.Event, unit time.Duration, output string) error {
	elapsed := time.Duration(ev.Elapsed) * unit

	switch ev.Type {
	case service.EventStarted:
		fmt.Fprintf(w, "recording to %s (session %s), Ctrl+C to stop\n", output, ev.SessionID)
	case service.EventDurationTick:
		fmt.Fprintf(w, "\r%s ", formatElapsed(elapsed))
	case service.EventStopped:
		code := 0
		if ev.Exit != nil {
			code = ev.Exit.Code
		}
		if !ev.Requested {
			fmt.Fprintf(w, "\nencoder exited on its own after %s (exit code %d)\n", formatElapsed(elapsed), code)
			if code != 0 {
				return fmt.Errorf("encoder exited unexpectedly with code %d", code)
			}
			return nil
		}
		fmt.Fprintf(w, "saved %s (%s)\n", output, formatElapsed(elapsed))
	case service.EventError:
		fmt.Fprintf(w, "recording failed: %s\n", ev.Message)
		return errors.New(ev.Message)
	}
	return nil
}

func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
