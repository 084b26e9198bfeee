// Package bootstrap contains the bootstrap command, which mines
// categorization rules from historical Excel bookkeeping workbooks.
package bootstrap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/cmd/root"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/ruleextractor"
)

var (
	sheetName      string
	minOccurrences int
	save           bool
)

// Cmd is the bootstrap command
var Cmd = &cobra.Command{
	Use:   "bootstrap [files...]",
	Short: "Mine categorization rules from historical Excel workbooks",
	Long: `Mine counterparty-to-category mappings from already-categorized
spreadsheets and propose rules. Patterns whose historical categories are too
mixed are reported for manual review instead of becoming rules. Nothing is
written unless --save is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBootstrap,
}

func init() {
	Cmd.Flags().StringVar(&sheetName, "sheet", "", "Sheet name to mine (substring match)")
	Cmd.Flags().IntVar(&minOccurrences, "min-occurrences", 0, "Minimum pattern occurrences")
	Cmd.Flags().BoolVar(&save, "save", false, "Merge mined rules into the stored rule set")
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	if sheetName == "" {
		sheetName = "Verrichtingen"
		if root.AppConfig != nil && root.AppConfig.Bootstrap.SheetName != "" {
			sheetName = root.AppConfig.Bootstrap.SheetName
		}
	}
	if minOccurrences < 1 {
		minOccurrences = 2
		if root.AppConfig != nil && root.AppConfig.Bootstrap.MinOccurrences > 0 {
			minOccurrences = root.AppConfig.Bootstrap.MinOccurrences
		}
	}

	rules, ambiguous, err := ruleextractor.ExtractFromFiles(args, sheetName, minOccurrences)
	if err != nil {
		return fmt.Errorf("rule extraction failed: %w", err)
	}

	cmd.Printf("Mined %d rules, %d ambiguous patterns\n\n", len(rules), len(ambiguous))

	for _, rule := range rules {
		cmd.Printf("%-16s %4d contains %-30q -> %s\n", rule.ID, rule.Priority, rule.Pattern, rule.TargetCategory)
	}

	if len(ambiguous) > 0 {
		cmd.Println("\nAmbiguous patterns (review manually):")
		for _, pattern := range ambiguous {
			categories := make([]string, 0, len(pattern.Categories))
			for category, count := range pattern.Categories {
				categories = append(categories, fmt.Sprintf("%s=%d", category, count))
			}
			sort.Strings(categories)
			cmd.Printf("  %-30q total %d: %v\n", pattern.Pattern, pattern.Total, categories)
		}
	}

	if !save {
		return nil
	}

	s := root.NewStore()
	existing, err := s.LoadRules()
	if err != nil {
		return fmt.Errorf("failed to load existing rules: %w", err)
	}

	// Mined rules never replace existing ones; patterns already covered are
	// dropped so manual edits survive a re-run.
	seen := make(map[string]bool, len(existing))
	for _, rule := range existing {
		seen[strings.ToLower(rule.Pattern)] = true
	}

	added := 0
	merged := existing
	for _, rule := range rules {
		if seen[strings.ToLower(rule.Pattern)] {
			continue
		}
		merged = append(merged, rule)
		added++
	}

	if err := s.SaveRules(merged); err != nil {
		return fmt.Errorf("failed to save rules: %w", err)
	}

	cmd.Printf("\nSaved %d new rules (%d total)\n", added, len(merged))
	return nil
}
