// Package dateutils provides common date operations used throughout the
// application. Bank exports and card statements use day-first Belgian date
// formats with either slash or dash separators.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/parsererror"
)

// Common date format constants used throughout the application
const (
	DateLayoutBelgian   = "02/01/2006"
	DateLayoutDashed    = "02-01-2006"
	DateLayoutISO       = "2006-01-02"
	DateLayoutShortYear = "02/01/06"
)

// BelgianFormats is the fixed fallback order used when parsing dates.
var BelgianFormats = []string{
	DateLayoutBelgian,
	DateLayoutDashed,
	DateLayoutISO,
	DateLayoutShortYear,
	"02-01-06",
}

// ParseBelgianDate attempts to parse a date string using the Belgian fallback
// formats. Returns a ParseError if none of the formats match.
func ParseBelgianDate(dateStr string) (time.Time, error) {
	cleaned := CleanDateString(dateStr)

	for _, format := range BelgianFormats {
		if t, err := time.Parse(format, cleaned); err == nil {
			return t, nil
		}
	}

	return time.Time{}, parsererror.NewParseError("date", dateStr, fmt.Errorf("no known format matched"))
}

// CleanDateString removes unwanted characters and normalizes a date string.
func CleanDateString(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)

	re := regexp.MustCompile(`\s+`)
	dateStr = re.ReplaceAllString(dateStr, " ")

	return dateStr
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD).
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// FormatBelgianDate formats a time.Time value in DD/MM/YYYY form.
func FormatBelgianDate(date time.Time) string {
	return date.Format(DateLayoutBelgian)
}
