package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sayouzone/sayou-healthcare/internal/scheduler"
)

func newAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run every crawl concurrently",
		Long: `Runs all four pipelines at once. The pipelines share no state, so
they execute as independent tasks; the command fails if any of them
fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			s := scheduler.New(nil, a.Deliverer, a.Logger.Named("scheduler"))
			g, ctx := errgroup.WithContext(cmd.Context())
			for _, c := range a.Crawlers() {
				g.Go(func() error {
					_, err := s.RunOnce(ctx, c)
					return err
				})
			}
			return g.Wait()
		},
	}
}
