// Package categorize contains the categorize command, which runs the rule
// engine over the stored transactions of a fiscal year.
package categorize

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/cmd/root"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/categorizer"
)

var (
	force  bool
	dryRun bool
)

// Cmd is the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Apply categorization rules to stored transactions",
	Long: `Run the priority-ordered rule set over the transactions of a fiscal
year. Already categorized transactions and manual overrides are left
untouched unless --force is given.`,
	RunE: runCategorize,
}

func init() {
	Cmd.Flags().BoolVarP(&force, "force", "f", false, "Re-categorize transactions that already have a category")
	Cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show results without saving")
}

func runCategorize(cmd *cobra.Command, args []string) error {
	year := root.SharedFlags.FiscalYear
	if year == 0 {
		year = time.Now().Year()
	}

	s := root.NewStore()

	transactions, err := s.LoadTransactions(year)
	if err != nil {
		return fmt.Errorf("failed to load transactions for %d: %w", year, err)
	}
	if len(transactions) == 0 {
		cmd.Printf("No transactions stored for %d\n", year)
		return nil
	}

	rules, err := s.LoadRules()
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	if len(rules) == 0 {
		return fmt.Errorf("no rules available; add rules or run bootstrap first")
	}

	stats := categorizer.CategorizeTransactions(transactions, rules, s.GetAccountTypeByIBAN, force)

	cmd.Printf("Categorized: %d\n", stats.Categorized)
	cmd.Printf("Uncategorized: %d\n", stats.Uncategorized)
	cmd.Printf("Skipped (excluded): %d\n", stats.Skipped)
	cmd.Printf("Maatschap / standard: %d / %d\n", stats.Maatschap, stats.Standard)

	if len(stats.RulesApplied) > 0 {
		cmd.Println("\nRule hits:")
		ids := make([]string, 0, len(stats.RulesApplied))
		for id := range stats.RulesApplied {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			cmd.Printf("  %-20s %d\n", id, stats.RulesApplied[id])
		}
	}

	if dryRun {
		cmd.Println("\nDry run: nothing saved")
		return nil
	}

	if err := s.SaveTransactions(year, transactions); err != nil {
		return fmt.Errorf("failed to save transactions for %d: %w", year, err)
	}

	return nil
}
