// Package report aggregates categorized transactions into a yearly
// profit-and-loss overview and renders it to the console or an Excel
// workbook.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/amountutils"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/config"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/depreciation"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
)

var log = config.Logger

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// LineItem is one category's aggregate for the fiscal year.
type LineItem struct {
	CategoryID   string
	CategoryName string
	Type         string
	Total        decimal.Decimal
	Count        int
}

// Report is the profit-and-loss overview for one fiscal year.
type Report struct {
	FiscalYear        int
	Items             []LineItem
	TherapeuticOmzet  decimal.Decimal
	OtherOmzet        decimal.Decimal
	Uncategorized     decimal.Decimal
	UncategorizedN    int
	Excluded          int
	DepreciationTotal decimal.Decimal
}

// TotalIncome sums all income line items.
func (r *Report) TotalIncome() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		if item.Type == models.CategoryTypeIncome {
			total = total.Add(item.Total)
		}
	}
	return total
}

// TotalExpenses sums all expense line items plus depreciation.
func (r *Report) TotalExpenses() decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		if item.Type == models.CategoryTypeExpense {
			total = total.Add(item.Total)
		}
	}
	return total.Add(r.DepreciationTotal.Neg())
}

// ProfitLoss is income plus expenses (expenses are negative).
func (r *Report) ProfitLoss() decimal.Decimal {
	return r.TotalIncome().Add(r.TotalExpenses())
}

// Generate aggregates the transactions of one fiscal year per category.
// Excluded transactions are counted but contribute nothing; uncategorized
// amounts are reported separately as a data-quality signal.
func Generate(transactions []*models.Transaction, categories map[string]models.Category, assets []*models.Asset, fiscalYear int) *Report {
	report := &Report{FiscalYear: fiscalYear}

	totals := make(map[string]*LineItem)

	for _, tx := range transactions {
		if tx.BookingDate.Year() != fiscalYear {
			continue
		}

		if tx.IsExcluded {
			report.Excluded++
			continue
		}

		if !tx.IsCategorized() {
			report.Uncategorized = report.Uncategorized.Add(tx.Amount)
			report.UncategorizedN++
			continue
		}

		item, ok := totals[tx.Category]
		if !ok {
			item = &LineItem{CategoryID: tx.Category}
			if category, known := categories[tx.Category]; known {
				item.CategoryName = category.Name
				item.Type = category.Type
			} else {
				item.CategoryName = tx.Category
				if tx.Amount.IsPositive() {
					item.Type = models.CategoryTypeIncome
				} else {
					item.Type = models.CategoryTypeExpense
				}
			}
			totals[tx.Category] = item
		}
		item.Total = item.Total.Add(tx.Amount)
		item.Count++

		if tx.Category == models.CategoryOmzet {
			if tx.IsTherapeutic {
				report.TherapeuticOmzet = report.TherapeuticOmzet.Add(tx.Amount)
			} else {
				report.OtherOmzet = report.OtherOmzet.Add(tx.Amount)
			}
		}
	}

	for _, item := range totals {
		report.Items = append(report.Items, *item)
	}
	sort.Slice(report.Items, func(i, j int) bool {
		if report.Items[i].Type != report.Items[j].Type {
			return report.Items[i].Type == models.CategoryTypeIncome
		}
		return report.Items[i].CategoryID < report.Items[j].CategoryID
	})

	report.DepreciationTotal = depreciation.TotalForYear(assets, fiscalYear)

	log.WithFields(logrus.Fields{
		"year":          fiscalYear,
		"categories":    len(report.Items),
		"uncategorized": report.UncategorizedN,
	}).Info("Generated P&L report")

	return report
}

// FormatConsole renders the report as plain text.
func FormatConsole(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Resultatenrekening %d\n", r.FiscalYear)
	fmt.Fprintf(&b, "%s\n", strings.Repeat("=", 60))

	for _, item := range r.Items {
		fmt.Fprintf(&b, "%-40s %15s (%d)\n", item.CategoryName, amountutils.FormatBelgianAmount(item.Total), item.Count)
	}

	if !r.DepreciationTotal.IsZero() {
		fmt.Fprintf(&b, "%-40s %15s\n", "Afschrijvingen", amountutils.FormatBelgianAmount(r.DepreciationTotal.Neg()))
	}

	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 60))
	fmt.Fprintf(&b, "%-40s %15s\n", "Totaal inkomsten", amountutils.FormatBelgianAmount(r.TotalIncome()))
	fmt.Fprintf(&b, "%-40s %15s\n", "Totaal uitgaven", amountutils.FormatBelgianAmount(r.TotalExpenses()))
	fmt.Fprintf(&b, "%-40s %15s\n", "Resultaat", amountutils.FormatBelgianAmount(r.ProfitLoss()))

	if !r.TherapeuticOmzet.IsZero() || !r.OtherOmzet.IsZero() {
		fmt.Fprintf(&b, "\nOmzet therapeutisch:      %s\n", amountutils.FormatBelgianAmount(r.TherapeuticOmzet))
		fmt.Fprintf(&b, "Omzet niet-therapeutisch: %s\n", amountutils.FormatBelgianAmount(r.OtherOmzet))
	}

	if r.UncategorizedN > 0 {
		fmt.Fprintf(&b, "\nNiet gecategoriseerd: %d verrichtingen, %s\n", r.UncategorizedN, amountutils.FormatBelgianAmount(r.Uncategorized))
	}

	return b.String()
}

// ExportToExcel writes the report to an Excel workbook.
func ExportToExcel(r *Report, outputPath string) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Warn("Failed to close workbook")
		}
	}()

	sheetName := fmt.Sprintf("Resultaat %d", r.FiscalYear)
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		log.WithError(err).Debug("Could not remove default sheet")
	}

	headers := []string{"Categorie", "Type", "Bedrag", "Aantal"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return fmt.Errorf("error writing header: %w", err)
		}
	}

	row := 2
	writeRow := func(name, kind string, amount decimal.Decimal, count any) error {
		if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), name); err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), kind); err != nil {
			return err
		}
		value, _ := amount.Float64()
		if err := f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), value); err != nil {
			return err
		}
		if count != nil {
			if err := f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), count); err != nil {
				return err
			}
		}
		row++
		return nil
	}

	for _, item := range r.Items {
		if err := writeRow(item.CategoryName, item.Type, item.Total, item.Count); err != nil {
			return fmt.Errorf("error writing report row: %w", err)
		}
	}

	if !r.DepreciationTotal.IsZero() {
		if err := writeRow("Afschrijvingen", models.CategoryTypeExpense, r.DepreciationTotal.Neg(), nil); err != nil {
			return fmt.Errorf("error writing depreciation row: %w", err)
		}
	}

	row++
	if err := writeRow("Resultaat", "", r.ProfitLoss(), nil); err != nil {
		return fmt.Errorf("error writing totals row: %w", err)
	}

	if err := f.SetColWidth(sheetName, "A", "A", 40); err != nil {
		log.WithError(err).Debug("Could not set column width")
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("error saving workbook: %w", err)
	}

	log.WithField("file", outputPath).Info("Wrote P&L workbook")
	return nil
}
