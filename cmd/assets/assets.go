// Package assets contains the assets command with subcommands for the
// depreciable asset register.
package assets

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/cmd/root"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/amountutils"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/dateutils"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/depreciation"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
)

var (
	addDate   string
	addAmount string
	addYears  int
	addNotes  string
)

// Cmd is the assets command
var Cmd = &cobra.Command{
	Use:   "assets",
	Short: "Maintain the depreciable asset register",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets with their depreciation status",
	RunE:  runList,
}

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a depreciable asset",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show the depreciation write-offs for a fiscal year",
	RunE:  runSchedule,
}

func init() {
	addCmd.Flags().StringVar(&addDate, "date", "", "Purchase date, DD/MM/YYYY (required)")
	addCmd.Flags().StringVar(&addAmount, "amount", "", "Purchase amount, e.g. 1.250,00 (required)")
	addCmd.Flags().IntVar(&addYears, "years", 3, "Depreciation period in years (1-10)")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "Free-form notes")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(scheduleCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	assets, err := root.NewStore().LoadAssets()
	if err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}

	if len(assets) == 0 {
		cmd.Println("No assets registered")
		return nil
	}

	now := time.Now()
	for _, asset := range assets {
		cmd.Printf("%-36s %-30s %s over %d years, %s\n",
			asset.ID, asset.Name,
			amountutils.FormatBelgianAmount(asset.PurchaseAmount),
			asset.DepreciationYears,
			depreciation.Status(asset, now))
	}

	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	if addDate == "" || addAmount == "" {
		return fmt.Errorf("--date and --amount are required")
	}

	purchaseDate, err := dateutils.ParseBelgianDate(addDate)
	if err != nil {
		return fmt.Errorf("invalid purchase date: %w", err)
	}

	purchaseAmount, err := amountutils.ParseBelgianAmount(addAmount)
	if err != nil {
		return fmt.Errorf("invalid purchase amount: %w", err)
	}

	asset := &models.Asset{
		ID:                uuid.New().String(),
		Name:              args[0],
		PurchaseDate:      purchaseDate,
		PurchaseAmount:    purchaseAmount,
		DepreciationYears: addYears,
		Notes:             addNotes,
		Source:            models.AssetSourceManual,
		CreatedAt:         time.Now(),
	}

	if err := asset.Validate(); err != nil {
		return fmt.Errorf("invalid asset: %w", err)
	}

	s := root.NewStore()
	assets, err := s.LoadAssets()
	if err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}

	assets = append(assets, asset)
	if err := s.SaveAssets(assets); err != nil {
		return fmt.Errorf("failed to save assets: %w", err)
	}

	cmd.Printf("Registered asset %s (%s/year over %d years)\n",
		asset.ID, amountutils.FormatBelgianAmount(asset.AnnualDepreciation()), asset.DepreciationYears)
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	year := root.SharedFlags.FiscalYear
	if year == 0 {
		year = time.Now().Year()
	}

	assets, err := root.NewStore().LoadAssets()
	if err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}

	entries := depreciation.EntriesForYear(assets, year)
	if len(entries) == 0 {
		cmd.Printf("No depreciation write-offs for %d\n", year)
		return nil
	}

	for _, entry := range entries {
		cmd.Printf("%-30s year %d: %s (book value %s)\n",
			entry.AssetName, entry.YearNumber,
			amountutils.FormatBelgianAmount(entry.Amount),
			amountutils.FormatBelgianAmount(entry.RemainingBookValue))
	}
	cmd.Printf("%-30s %s\n", "Total", amountutils.FormatBelgianAmount(depreciation.TotalForYear(assets, year)))

	return nil
}
