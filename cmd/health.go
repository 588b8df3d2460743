package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Crawl the drug-information site's search results",
		Long: `Pages through the site's search results for every leading Korean
consonant, extracts medicine rows from the HTML fragments, and delivers
the normalized result.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSource(cmd, healthdata.SourceHealth)
		},
	}
}
