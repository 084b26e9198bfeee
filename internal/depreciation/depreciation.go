// Package depreciation computes straight-line depreciation schedules for
// business assets. Whole years only: the purchase year gets a full write-off
// and a disposal mid-year still counts as a full final year.
package depreciation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
)

// IsDepreciatingInYear reports whether an asset has a write-off in the given
// fiscal year.
func IsDepreciatingInYear(asset *models.Asset, year int) bool {
	firstYear := asset.FirstDepreciationYear()
	lastYear := asset.LastDepreciationYear()

	if year < firstYear || year > lastYear {
		return false
	}

	// Disposed before this year; the disposal year itself still depreciates
	if asset.DisposalDate != nil && asset.DisposalDate.Year() < year {
		return false
	}

	return true
}

// Status determines the asset status as of the reference date.
func Status(asset *models.Asset, reference time.Time) string {
	if asset.DisposalDate != nil {
		return models.AssetStatusDisposed
	}

	if reference.Year() > asset.LastDepreciationYear() {
		return models.AssetStatusFullyDepreciated
	}

	return models.AssetStatusActive
}

// EntriesForYear returns the write-off lines of all assets depreciating in
// the given fiscal year.
func EntriesForYear(assets []*models.Asset, year int) []models.DepreciationEntry {
	var entries []models.DepreciationEntry

	for _, asset := range assets {
		if !IsDepreciatingInYear(asset, year) {
			continue
		}

		annual := asset.AnnualDepreciation()
		yearNumber := year - asset.FirstDepreciationYear() + 1

		accumulated := annual.Mul(decimal.NewFromInt(int64(yearNumber)))
		remaining := asset.PurchaseAmount.Sub(accumulated)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}

		entries = append(entries, models.DepreciationEntry{
			AssetID:            asset.ID,
			AssetName:          asset.Name,
			FiscalYear:         year,
			Amount:             annual,
			YearNumber:         yearNumber,
			RemainingBookValue: remaining,
		})
	}

	return entries
}

// TotalForYear sums the write-offs of all assets for a fiscal year.
func TotalForYear(assets []*models.Asset, year int) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range EntriesForYear(assets, year) {
		total = total.Add(entry.Amount)
	}
	return total
}

// BookValue returns the remaining book value of an asset at the end of the
// given fiscal year.
func BookValue(asset *models.Asset, asOfYear int) decimal.Decimal {
	if asOfYear < asset.FirstDepreciationYear() {
		return asset.PurchaseAmount
	}

	years := asOfYear - asset.FirstDepreciationYear() + 1
	if years > asset.DepreciationYears {
		years = asset.DepreciationYears
	}

	remaining := asset.PurchaseAmount.Sub(asset.AnnualDepreciation().Mul(decimal.NewFromInt(int64(years))))
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
