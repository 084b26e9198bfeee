// Package report contains the report command, which renders the yearly
// profit-and-loss overview.
package report

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/cmd/root"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/report"
)

var output string

// Cmd is the report command
var Cmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the yearly profit-and-loss overview",
	Long: `Aggregate the categorized transactions of a fiscal year per category,
add the depreciation write-offs of the asset register and render the
profit-and-loss overview to the console or an Excel workbook.`,
	RunE: runReport,
}

func init() {
	Cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to an Excel workbook instead of the console")
}

func runReport(cmd *cobra.Command, args []string) error {
	year := root.SharedFlags.FiscalYear
	if year == 0 {
		year = time.Now().Year()
	}

	s := root.NewStore()

	transactions, err := s.LoadTransactions(year)
	if err != nil {
		return fmt.Errorf("failed to load transactions for %d: %w", year, err)
	}

	categories, err := s.LoadCategories()
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}

	assets, err := s.LoadAssets()
	if err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}

	result := report.Generate(transactions, categories, assets, year)

	if output != "" {
		if err := report.ExportToExcel(result, output); err != nil {
			return fmt.Errorf("failed to write report workbook: %w", err)
		}
		cmd.Printf("Wrote report to %s\n", output)
		return nil
	}

	cmd.Print(report.FormatConsole(result))
	return nil
}
