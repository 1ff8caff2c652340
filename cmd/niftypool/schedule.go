package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/itsharshx/niftypool/internal/logging"
	"github.com/itsharshx/niftypool/internal/schedule"
)

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run join batches on a cron schedule",
		Long: `Run join batches repeatedly on a cron schedule (drip-joining).

With --install the scheduler is registered as a system service; --uninstall
removes it. Without control flags the scheduler runs in the foreground (or
under the service manager when launched by it).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			applyJoinFlags(cmd, settings)
			if v, _ := cmd.Flags().GetString("expr"); v != "" {
				settings.Schedule = v
			}

			logger, closeLog, err := logging.Setup(settings.LogDir, slog.LevelInfo, time.Now())
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			if install, _ := cmd.Flags().GetBool("install"); install {
				return schedule.Control("install", logger)
			}
			if uninstall, _ := cmd.Flags().GetBool("uninstall"); uninstall {
				return schedule.Control("uninstall", logger)
			}

			if settings.Schedule == "" {
				return errors.New("no schedule configured: set schedule in niftypool.yaml or pass --expr")
			}

			scheduler := schedule.NewScheduler(logger)
			job := &schedule.BatchJob{
				JobName: "join_batch",
				Expr:    settings.Schedule,
				Fn: func(ctx context.Context) error {
					// Scheduled batches never prompt.
					return runBatch(ctx, settings, false)
				},
			}
			if err := scheduler.RegisterJob(job); err != nil {
				return err
			}

			return schedule.RunAsService(scheduler, logger)
		},
	}
	cmd.Flags().StringP("session", "s", "", "Session name to use")
	cmd.Flags().Float64P("interval", "i", 0, "Base interval between joins in minutes")
	cmd.Flags().StringP("links-file", "f", "", "File containing group links")
	cmd.Flags().Bool("no-randomize", false, "Disable interval randomization")
	cmd.Flags().String("expr", "", "Cron expression (overrides settings)")
	cmd.Flags().Bool("install", false, "Install as a system service")
	cmd.Flags().Bool("uninstall", false, "Uninstall the system service")
	return cmd
}
