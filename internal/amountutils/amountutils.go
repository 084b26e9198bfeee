// Package amountutils provides parsing and formatting of Belgian-formatted
// monetary amounts, where the period is a thousands separator and the comma a
// decimal separator (e.g. "1.234,56" or "38,51-").
package amountutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/config"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/parsererror"
)

var log = config.Logger

// SetLogger sets a custom logger for this package
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

var hasDigit = regexp.MustCompile(`\d`)

// ParseBelgianAmount converts a Belgian-formatted amount string to a decimal
// value. It accepts an optional leading or trailing sign, an optional EUR/€
// currency token and non-breaking spaces. Returns a ParseError naming the
// original text when the residual is not a valid decimal literal.
func ParseBelgianAmount(amountStr string) (decimal.Decimal, error) {
	text := strings.TrimSpace(amountStr)
	if text == "" {
		return decimal.Zero, parsererror.NewParseError("amount", amountStr, fmt.Errorf("amount is required"))
	}

	// Strip currency tokens and all whitespace, including NBSP
	text = strings.ReplaceAll(text, " ", " ")
	text = strings.ReplaceAll(text, "EUR", "")
	text = strings.ReplaceAll(text, "€", "")
	text = strings.ReplaceAll(text, " ", "")

	// Trailing sign (Belfius prints "38,51-" for debits)
	sign := ""
	if strings.HasSuffix(text, "-") {
		sign = "-"
		text = strings.TrimSuffix(text, "-")
	} else if strings.HasSuffix(text, "+") {
		text = strings.TrimSuffix(text, "+")
	}

	// Leading sign
	if strings.HasPrefix(text, "-") {
		sign = "-"
		text = strings.TrimPrefix(text, "-")
	} else if strings.HasPrefix(text, "+") {
		text = strings.TrimPrefix(text, "+")
	}

	if !hasDigit.MatchString(text) {
		return decimal.Zero, parsererror.NewParseError("amount", amountStr, fmt.Errorf("no digits found"))
	}

	// Thousands separator first, then decimal separator, to avoid collision
	normalized := strings.ReplaceAll(text, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	normalized = sign + normalized

	amount, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, parsererror.NewParseError("amount", amountStr, err)
	}

	return amount, nil
}

// FormatBelgianAmount formats a decimal amount back into the Belgian display
// format with two decimal places, e.g. "1.234,56".
func FormatBelgianAmount(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	integer := parts[0]

	var grouped strings.Builder
	for i, r := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			grouped.WriteRune('.')
		}
		grouped.WriteRune(r)
	}

	result := grouped.String() + "," + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}
