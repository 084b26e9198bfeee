// Package importcmd contains the import command, which ingests ledger
// exports and card statements into the transaction store.
package importcmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/cmd/root"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/ledgerparser"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/statementparser"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/store"
)

var (
	force  bool
	dryRun bool
)

// Cmd is the import command
var Cmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import bank CSV exports and Mastercard statements",
	Long: `Import one or more Belfius CSV exports (.csv) and Mastercard
statements (.pdf). Transactions already present in the store are skipped
unless --force is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	Cmd.Flags().BoolVarP(&force, "force", "f", false, "Re-import transactions that already exist")
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse files without saving anything")
}

func runImport(cmd *cobra.Command, args []string) error {
	s := root.NewStore()

	existingIDs, err := s.ExistingIDs()
	if err != nil {
		return fmt.Errorf("failed to load existing transaction ids: %w", err)
	}

	ledger := ledgerparser.New(existingIDs)
	if cfg := root.AppConfig; cfg != nil {
		if cfg.Import.Delimiter != "" {
			ledger.SetDelimiter(rune(cfg.Import.Delimiter[0]))
		}
		ledger.SetHeaderLines(cfg.Import.HeaderLines)
	}
	statements := statementparser.New(existingIDs)

	var imported []*models.Transaction
	var sessions []*models.ImportSession

	for _, file := range args {
		var transactions []*models.Transaction
		var session *models.ImportSession

		switch {
		case strings.HasSuffix(strings.ToLower(file), ".csv"):
			transactions, session = ledger.ParseFile(file, root.SharedFlags.FiscalYear, force)
		case strings.HasSuffix(strings.ToLower(file), ".pdf"):
			transactions, session = statements.ParseFile(file, root.SharedFlags.FiscalYear, force)
		default:
			root.Log.WithField("file", file).Warn("Skipping file with unknown extension")
			continue
		}

		imported = append(imported, transactions...)
		sessions = append(sessions, session)
	}

	printSessions(cmd, sessions)

	if dryRun {
		cmd.Println("Dry run: nothing saved")
		return nil
	}

	byYear := make(map[int][]*models.Transaction)
	for _, tx := range imported {
		byYear[tx.BookingDate.Year()] = append(byYear[tx.BookingDate.Year()], tx)
	}

	for year, transactions := range byYear {
		existing, err := s.LoadTransactions(year)
		if err != nil {
			return fmt.Errorf("failed to load transactions for %d: %w", year, err)
		}

		merged := store.MergeTransactions(existing, transactions, force)
		if err := s.SaveTransactions(year, merged); err != nil {
			return fmt.Errorf("failed to save transactions for %d: %w", year, err)
		}
	}

	return nil
}

func printSessions(cmd *cobra.Command, sessions []*models.ImportSession) {
	for _, session := range sessions {
		cmd.Printf("%s: %d imported, %d duplicates skipped, %d excluded\n",
			strings.Join(session.SourceFiles, ", "),
			session.Imported, session.Skipped, session.Excluded)

		for _, issue := range session.Errors {
			if issue.Line > 0 {
				cmd.Printf("  error (line %d): %s\n", issue.Line, issue.Message)
			} else {
				cmd.Printf("  error: %s\n", issue.Message)
			}
		}
	}
}
