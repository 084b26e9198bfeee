// Package rules contains the rules command with subcommands for inspecting
// and maintaining the categorization rule set.
package rules

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/cmd/root"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/common"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
)

var (
	addPattern     string
	addKind        string
	addField       string
	addCategory    string
	addPriority    int
	addTherapeutic bool
	addNotes       string
)

// Cmd is the rules command
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and maintain categorization rules",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all rules in priority order",
	RunE:  runList,
}

var listOutput string

var addCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add a manual rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

var disableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a rule without deleting it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisable,
}

var testCmd = &cobra.Command{
	Use:   "test <value>",
	Short: "Show which rule would match a field value",
	Args:  cobra.ExactArgs(1),
	RunE:  runTest,
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "", "Write the listing to a CSV file")

	addCmd.Flags().StringVar(&addPattern, "pattern", "", "Pattern text (required)")
	addCmd.Flags().StringVar(&addKind, "kind", string(models.PatternContains), "Pattern kind: exact, prefix, contains, regex")
	addCmd.Flags().StringVar(&addField, "field", string(models.FieldCounterpartyName), "Match field: counterparty_name, description, counterparty_account")
	addCmd.Flags().StringVar(&addCategory, "category", "", "Target category id (required)")
	addCmd.Flags().IntVar(&addPriority, "priority", 100, "Rule priority, lower evaluates first")
	addCmd.Flags().BoolVar(&addTherapeutic, "therapeutic", false, "Mark matched income as therapeutic")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Free-form notes")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(disableCmd)
	Cmd.AddCommand(testCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	rules, err := root.NewStore().LoadRules()
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	if len(rules) == 0 {
		cmd.Println("No rules configured")
		return nil
	}

	sorted := make([]*models.Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	if listOutput != "" {
		file, err := os.Create(listOutput) // #nosec G304 -- CLI tool writes user-provided paths
		if err != nil {
			return fmt.Errorf("failed to create listing file: %w", err)
		}
		defer func() {
			if err := file.Close(); err != nil {
				root.Log.WithError(err).Warn("Failed to close file")
			}
		}()

		if err := common.WriteRulesCSV(sorted, file); err != nil {
			return err
		}
		cmd.Printf("Wrote %d rules to %s\n", len(sorted), listOutput)
		return nil
	}

	cmd.Printf("%-16s %4s %-10s %-22s %-30s %s\n", "ID", "PRIO", "KIND", "FIELD", "PATTERN", "CATEGORY")
	for _, rule := range sorted {
		marker := ""
		if !rule.Enabled {
			marker = " (disabled)"
		}
		cmd.Printf("%-16s %4d %-10s %-22s %-30s %s%s\n",
			rule.ID, rule.Priority, rule.PatternKind, rule.MatchField, rule.Pattern, rule.TargetCategory, marker)
	}

	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	if addPattern == "" || addCategory == "" {
		return fmt.Errorf("--pattern and --category are required")
	}

	s := root.NewStore()

	if !s.ValidateCategory(addCategory) {
		return fmt.Errorf("unknown category: %s", addCategory)
	}

	rule, err := models.NewRule(args[0], addPattern, models.PatternKind(addKind), models.MatchField(addField), addCategory, addPriority)
	if err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}
	rule.Notes = addNotes
	if addTherapeutic {
		therapeutic := true
		rule.IsTherapeutic = &therapeutic
	}

	if err := s.AddRule(rule); err != nil {
		return fmt.Errorf("failed to add rule: %w", err)
	}

	cmd.Printf("Added rule %s\n", rule.ID)
	return nil
}

func runDisable(cmd *cobra.Command, args []string) error {
	s := root.NewStore()

	rules, err := s.LoadRules()
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	found := false
	for _, rule := range rules {
		if rule.ID == args[0] {
			rule.Enabled = false
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("rule not found: %s", args[0])
	}

	if err := s.SaveRules(rules); err != nil {
		return fmt.Errorf("failed to save rules: %w", err)
	}

	cmd.Printf("Disabled rule %s\n", args[0])
	return nil
}

func runTest(cmd *cobra.Command, args []string) error {
	rules, err := root.NewStore().LoadRules()
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	sorted := make([]*models.Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	for _, rule := range sorted {
		if !rule.Enabled {
			continue
		}
		if rule.Matches(args[0]) {
			cmd.Printf("Matched rule %s (%s on %s) -> %s\n",
				rule.ID, rule.PatternKind, rule.MatchField, rule.TargetCategory)
			return nil
		}
	}

	cmd.Println("No rule matches")
	return nil
}
