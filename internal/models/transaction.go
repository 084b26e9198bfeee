// Package models provides the data structures used throughout the application.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/parsererror"
)

// Source types for transactions
const (
	SourceLedger    = "ledger"    // delimited bank export
	SourceStatement = "statement" // credit-card statement
)

// Currency is the single supported denomination. The system is
// single-currency by design.
const Currency = "EUR"

// CategoryOmzet is the revenue category. The therapeutic flag is only
// meaningful for transactions in this category.
const CategoryOmzet = "omzet"

// Transaction represents a single financial movement from a bank export or a
// credit-card statement. Amounts are negative for outflows and positive for
// inflows. Transactions are created once by a parser or manual entry, mutated
// only by the categorization engine or explicit manual edit, and never
// deleted, only superseded across import runs.
type Transaction struct {
	ID         string `json:"id" yaml:"id"`
	SourceFile string `json:"source_file" yaml:"source_file"`
	SourceType string `json:"source_type" yaml:"source_type"`

	StatementNumber string `json:"statement_number,omitempty" yaml:"statement_number,omitempty"`
	SequenceNumber  string `json:"sequence_number,omitempty" yaml:"sequence_number,omitempty"`

	BookingDate time.Time       `json:"booking_date" yaml:"booking_date"`
	ValueDate   time.Time       `json:"value_date" yaml:"value_date"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	Currency    string          `json:"currency" yaml:"currency"`

	CounterpartyName       string `json:"counterparty_name,omitempty" yaml:"counterparty_name,omitempty"`
	CounterpartyAccount    string `json:"counterparty_account,omitempty" yaml:"counterparty_account,omitempty"`
	CounterpartyStreet     string `json:"counterparty_street,omitempty" yaml:"counterparty_street,omitempty"`
	CounterpartyPostalCity string `json:"counterparty_postal_city,omitempty" yaml:"counterparty_postal_city,omitempty"`
	CounterpartyBankCode   string `json:"counterparty_bank_code,omitempty" yaml:"counterparty_bank_code,omitempty"`
	CounterpartyCountry    string `json:"counterparty_country,omitempty" yaml:"counterparty_country,omitempty"`
	OwnAccount             string `json:"own_account,omitempty" yaml:"own_account,omitempty"`

	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	Communication string `json:"communication,omitempty" yaml:"communication,omitempty"`

	Category         string `json:"category,omitempty" yaml:"category,omitempty"`
	MatchedRuleID    string `json:"matched_rule_id,omitempty" yaml:"matched_rule_id,omitempty"`
	IsTherapeutic    bool   `json:"is_therapeutic" yaml:"is_therapeutic"`
	IsManualOverride bool   `json:"is_manual_override" yaml:"is_manual_override"`
	IsExcluded       bool   `json:"is_excluded" yaml:"is_excluded"`
	ExclusionReason  string `json:"exclusion_reason,omitempty" yaml:"exclusion_reason,omitempty"`
}

// Validate checks the transaction invariants. It is called by parsers after
// construction; a failure is converted into a row skip, never propagated past
// the parser boundary.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return parsererror.NewValidationError("transaction", "id is required")
	}

	if t.SourceType != SourceLedger && t.SourceType != SourceStatement {
		return parsererror.NewValidationError("transaction", "unknown source type: "+t.SourceType)
	}

	if t.Currency != Currency {
		return parsererror.NewValidationError("transaction", "only EUR currency supported, got: "+t.Currency)
	}

	if t.Amount.IsZero() {
		return parsererror.NewValidationError("transaction", "amount cannot be zero")
	}

	if t.IsTherapeutic && t.Category != CategoryOmzet {
		return parsererror.NewValidationError("transaction", "therapeutic flag requires the omzet category")
	}

	return nil
}

// IsIncome returns true for inflows.
func (t *Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// IsExpense returns true for outflows.
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsCategorized returns true once a category has been assigned.
func (t *Transaction) IsCategorized() bool {
	return t.Category != ""
}

// AssignCategory records a manual category assignment. Manual assignments
// clear the matched rule and are protected from re-categorization unless the
// engine runs with force.
func (t *Transaction) AssignCategory(category string, therapeutic bool) error {
	if therapeutic && category != CategoryOmzet {
		return parsererror.NewValidationError("transaction", "therapeutic flag requires the omzet category")
	}

	t.Category = category
	t.MatchedRuleID = ""
	t.IsManualOverride = true
	t.IsTherapeutic = therapeutic
	return nil
}
