package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/parsererror"
)

// Asset statuses
const (
	AssetStatusActive           = "active"
	AssetStatusFullyDepreciated = "fully_depreciated"
	AssetStatusDisposed         = "disposed"
)

// Asset sources
const (
	AssetSourceManual      = "manual"
	AssetSourceExcelImport = "excel_import"
)

// Asset represents a depreciable business asset, written off straight-line
// over a whole number of years without pro-rating.
type Asset struct {
	ID                string          `json:"id" yaml:"id"`
	Name              string          `json:"name" yaml:"name"`
	PurchaseDate      time.Time       `json:"purchase_date" yaml:"purchase_date"`
	PurchaseAmount    decimal.Decimal `json:"purchase_amount" yaml:"purchase_amount"`
	DepreciationYears int             `json:"depreciation_years" yaml:"depreciation_years"`
	DisposalDate      *time.Time      `json:"disposal_date,omitempty" yaml:"disposal_date,omitempty"`
	Notes             string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	Source            string          `json:"source" yaml:"source"`
	CreatedAt         time.Time       `json:"created_at" yaml:"created_at"`
}

// Validate checks the asset invariants.
func (a *Asset) Validate() error {
	if a.Name == "" {
		return parsererror.NewValidationError("asset", "name cannot be empty")
	}

	if !a.PurchaseAmount.IsPositive() {
		return parsererror.NewValidationError("asset", "purchase amount must be positive")
	}

	if a.DepreciationYears < 1 || a.DepreciationYears > 10 {
		return parsererror.NewValidationError("asset", "depreciation years must be between 1 and 10")
	}

	if a.Source != AssetSourceManual && a.Source != AssetSourceExcelImport {
		return parsererror.NewValidationError("asset", "unknown source: "+a.Source)
	}

	if a.DisposalDate != nil && a.DisposalDate.Before(a.PurchaseDate) {
		return parsererror.NewValidationError("asset", "disposal date must be after purchase date")
	}

	return nil
}

// AnnualDepreciation returns the straight-line yearly write-off.
func (a *Asset) AnnualDepreciation() decimal.Decimal {
	return a.PurchaseAmount.Div(decimal.NewFromInt(int64(a.DepreciationYears)))
}

// FirstDepreciationYear returns the first year of depreciation.
func (a *Asset) FirstDepreciationYear() int {
	return a.PurchaseDate.Year()
}

// LastDepreciationYear returns the last year of depreciation, ignoring any
// disposal.
func (a *Asset) LastDepreciationYear() int {
	return a.PurchaseDate.Year() + a.DepreciationYears - 1
}

// DepreciationEntry is one asset's write-off line for a fiscal year.
type DepreciationEntry struct {
	AssetID            string          `json:"asset_id"`
	AssetName          string          `json:"asset_name"`
	FiscalYear         int             `json:"fiscal_year"`
	Amount             decimal.Decimal `json:"amount"`
	YearNumber         int             `json:"year_number"`
	RemainingBookValue decimal.Decimal `json:"remaining_book_value"`
}
