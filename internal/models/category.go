package models

import "github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/parsererror"

// Category types
const (
	CategoryTypeIncome  = "income"
	CategoryTypeExpense = "expense"
)

// Category is a predefined income/expense category for the Belgian tax
// filing. IDs are slug-form Dutch names (e.g. "huur-onroerend-goed").
type Category struct {
	ID            string `yaml:"id"`
	Name          string `yaml:"name"`
	Type          string `yaml:"type"`
	TaxDeductible bool   `yaml:"tax_deductible"`
	Description   string `yaml:"description,omitempty"`
}

// Validate checks the category invariants.
func (c *Category) Validate() error {
	if c.Type != CategoryTypeIncome && c.Type != CategoryTypeExpense {
		return parsererror.NewValidationError("category", "unknown category type: "+c.Type)
	}
	return nil
}
