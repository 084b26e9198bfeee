package models

import (
	"strings"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/parsererror"
)

// Account types
const (
	AccountTypeStandard  = "standard"
	AccountTypeMaatschap = "maatschap" // jointly held partnership account
)

// Partner represents one partner in a maatschap (Belgian partnership).
type Partner struct {
	Name string `yaml:"name"`
	IBAN string `yaml:"iban"`
}

// Account is the configuration for one bank account. For maatschap accounts
// the categorization engine tries description rules before counterparty
// rules, because the counterparty on a shared account is often an
// intermediary rather than a useful signal.
type Account struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	IBAN        string    `yaml:"iban"`
	AccountType string    `yaml:"account_type"`
	Partners    []Partner `yaml:"partners,omitempty"`
}

// Validate checks the account invariants.
func (a *Account) Validate() error {
	if a.AccountType != AccountTypeStandard && a.AccountType != AccountTypeMaatschap {
		return parsererror.NewValidationError("account", "unknown account type: "+a.AccountType)
	}

	if a.AccountType == AccountTypeMaatschap && len(a.Partners) < 2 {
		return parsererror.NewValidationError("account", "maatschap accounts must have at least 2 partners")
	}

	return nil
}

// IsMaatschap returns true for partnership accounts.
func (a *Account) IsMaatschap() bool {
	return a.AccountType == AccountTypeMaatschap
}

// NormalizedIBAN returns the IBAN without spaces, uppercased, for comparison.
func (a *Account) NormalizedIBAN() string {
	return NormalizeIBAN(a.IBAN)
}

// NormalizeIBAN strips spaces and uppercases an IBAN for comparison.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
}
