package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sayouzone/sayou-healthcare/internal/scheduler"
)

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the crawls on their configured cron cadences",
		Long: `Starts the cron loop and the metrics listener, then blocks until
interrupted. Each source keeps its own cadence; finished crawls are
delivered through the same path as one-shot runs.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			s := scheduler.New(a.ScheduleJobs(), a.Deliverer, a.Logger.Named("scheduler"))
			if err := s.Start(ctx); err != nil {
				return err
			}
			defer s.Stop()

			return a.ServeMetrics(ctx)
		},
	}
}
