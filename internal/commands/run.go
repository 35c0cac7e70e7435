package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"intervals/backend/internal/config"
	"intervals/backend/internal/logging"
	"intervals/backend/internal/notify"
	"intervals/backend/internal/service"
	"intervals/backend/internal/timer"
	"intervals/backend/internal/tui"
)

func newRunCmd(opts *options) *cobra.Command {
	var quiet bool

	runCmd := &cobra.Command{
		Use:   "run <preset-id>",
		Short: "Run a preset in the interactive timer",
		Long: `Run a preset in the interactive timer.

Keys: s start, p pause/resume, n skip or next set, r rest (rest-only presets),
x reset, w save & exit, q quit without saving.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.logFile == "" {
				// stderr belongs to the terminal UI while it runs
				logging.Setup(io.Discard, "warn", "text")
			}
			return withApp(opts, func(a *app) error {
				ctx := cmd.Context()
				userID, err := a.login(ctx, opts)
				if err != nil {
					return err
				}
				preset, apiErr := a.presets.Get(ctx, userID, args[0])
				if apiErr != nil {
					return apiErr
				}

				notifiers := notify.Multi{notify.Log{}}
				if !quiet {
					notifiers = append(notifiers, &notify.Bell{W: os.Stderr})
				}

				timerService := service.NewTimerService(
					a.presetRepo,
					service.NewSessionRecorder(a.sessionRepo),
					notifiers,
					service.TimerOptions{Interval: config.Load().TickInterval, Scheduler: timer.TickerScheduler{}},
				)
				defer timerService.Close()

				final, err := tui.RunTimerTUI(ctx, timerService, userID, *preset)
				if err != nil {
					return err
				}
				printSummary(cmd, final)
				return nil
			})
		},
	}

	runCmd.Flags().BoolVar(&quiet, "quiet", false, "do not ring the terminal bell on phase changes")
	return runCmd
}

func printSummary(cmd *cobra.Command, final service.TimerStateView) {
	out := cmd.OutOrStdout()
	if !final.Running {
		fmt.Fprintln(out, "Timer closed")
		return
	}
	status := "not saved"
	if final.Saved {
		status = "saved"
	}
	fmt.Fprintf(out, "%d sets, %s work, %s rest (%s)\n",
		final.SetsCompleted,
		formatSeconds(final.TotalWorkSeconds),
		formatSeconds(final.TotalRestSeconds),
		status,
	)
}
