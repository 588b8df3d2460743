// Package cmd defines the CLI commands for the healthcare crawler
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sayouzone/sayou-healthcare/internal/app"
	"github.com/sayouzone/sayou-healthcare/internal/config"
	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
	"github.com/sayouzone/sayou-healthcare/internal/scheduler"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sayou-healthcare",
		Short: "Acquisition pipelines for Korean government health data",
		Long: `sayou-healthcare crawls the Korean drug-safety registry, the
health-insurance review agency, and the public drug-information site,
normalizes their published lists into canonical records, and delivers
them to object storage, the warehouse, and local CSV snapshots.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")

	cmd.AddCommand(
		newNedrugCmd(),
		newHiraCmd(),
		newHealthCmd(),
		newAllCmd(),
		newScheduleCmd(),
	)
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// buildApp loads configuration and wires the pipeline dependencies.
func buildApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.Build(ctx, cfg)
}

// runSource executes one crawl-and-deliver cycle for a single source.
func runSource(cmd *cobra.Command, source healthdata.SourceKind) error {
	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.Crawler(source)
	if err != nil {
		return err
	}

	s := scheduler.New(nil, a.Deliverer, a.Logger.Named("scheduler"))
	result, err := s.RunOnce(cmd.Context(), c)
	if err != nil {
		return fmt.Errorf("run %s: %w", source, err)
	}

	a.Logger.Info("run complete",
		zap.String("source", string(source)),
		zap.String("run_id", result.RunID),
		zap.Int("records", result.Records()),
		zap.Int("row_errors", len(result.RowErrors)),
	)
	return nil
}
