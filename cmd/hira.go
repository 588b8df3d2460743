package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

func newHiraCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hira",
		Short: "Crawl the health-insurance review agency",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "download",
			Short: "Fetch the newest drug pricing list from the notice board",
			Long: `Scrapes the agency's notice board, resolves the most recently
published pricing spreadsheet, and normalizes it into medicine records
with insurance ceiling prices.`,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSource(cmd, healthdata.SourceHiraDownload)
			},
		},
		&cobra.Command{
			Use:   "opendata",
			Short: "Fetch the national hospital and pharmacy roster archive",
			Long: `Resolves the newest roster publication on the open-data portal,
downloads the ZIP archive, and normalizes the hospital and pharmacy
spreadsheets inside it.`,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSource(cmd, healthdata.SourceHiraOpenData)
			},
		},
	)
	return cmd
}
