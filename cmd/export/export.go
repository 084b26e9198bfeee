// Package export contains the export command, which writes stored
// transactions to a semicolon-delimited CSV file for spreadsheet review.
package export

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/cmd/root"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/common"
)

var output string

// Cmd is the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored transactions to CSV",
	RunE:  runExport,
}

func init() {
	Cmd.Flags().StringVarP(&output, "output", "o", "", "Output CSV file (required)")
	if err := Cmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}
}

func runExport(cmd *cobra.Command, args []string) error {
	year := root.SharedFlags.FiscalYear
	if year == 0 {
		year = time.Now().Year()
	}

	transactions, err := root.NewStore().LoadTransactions(year)
	if err != nil {
		return fmt.Errorf("failed to load transactions for %d: %w", year, err)
	}
	if len(transactions) == 0 {
		return fmt.Errorf("no transactions stored for %d", year)
	}

	if err := common.WriteTransactionsToCSVFile(transactions, output); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}

	cmd.Printf("Exported %d transactions to %s\n", len(transactions), output)
	return nil
}
