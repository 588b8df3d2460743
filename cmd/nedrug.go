package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

func newNedrugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nedrug",
		Short: "Crawl the drug-safety registry's approved drug list",
		Long: `Downloads the registry's paged Excel export of approved drugs,
normalizes the rows into medicine records, and delivers the result.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSource(cmd, healthdata.SourceNedrug)
		},
	}
}
