// Package common provides shared CSV functionality for exporting categorized
// transactions and rule listings.
package common

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/amountutils"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/config"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/dateutils"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
)

var log = config.Logger

// Delimiter is the cell delimiter used for CSV output.
var Delimiter rune = ';'

// SetDelimiter allows setting the delimiter for CSV output
func SetDelimiter(delim rune) {
	Delimiter = delim
}

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// TransactionCSVRow is the flat export shape of a transaction.
type TransactionCSVRow struct {
	ID              string `csv:"Id"`
	BookingDate     string `csv:"Boekingsdatum"`
	ValueDate       string `csv:"Valutadatum"`
	Amount          string `csv:"Bedrag"`
	Currency        string `csv:"Munt"`
	Counterparty    string `csv:"Tegenpartij"`
	Account         string `csv:"Rekening"`
	Description     string `csv:"Omschrijving"`
	Category        string `csv:"Categorie"`
	MatchedRule     string `csv:"Regel"`
	Therapeutic     string `csv:"Therapeutisch"`
	Excluded        string `csv:"Uitgesloten"`
	ExclusionReason string `csv:"Reden"`
}

// toCSVRow flattens a transaction for export.
func toCSVRow(tx *models.Transaction) *TransactionCSVRow {
	return &TransactionCSVRow{
		ID:              tx.ID,
		BookingDate:     dateutils.FormatBelgianDate(tx.BookingDate),
		ValueDate:       dateutils.FormatBelgianDate(tx.ValueDate),
		Amount:          amountutils.FormatBelgianAmount(tx.Amount),
		Currency:        tx.Currency,
		Counterparty:    tx.CounterpartyName,
		Account:         tx.OwnAccount,
		Description:     tx.Description,
		Category:        tx.Category,
		MatchedRule:     tx.MatchedRuleID,
		Therapeutic:     boolCell(tx.IsTherapeutic),
		Excluded:        boolCell(tx.IsExcluded),
		ExclusionReason: tx.ExclusionReason,
	}
}

func boolCell(b bool) string {
	if b {
		return "ja"
	}
	return "nee"
}

// WriteTransactionsCSV writes transactions to a writer in the configured
// delimiter.
func WriteTransactionsCSV(transactions []*models.Transaction, w io.Writer) error {
	rows := make([]*TransactionCSVRow, 0, len(transactions))
	for _, tx := range transactions {
		rows = append(rows, toCSVRow(tx))
	}

	gocsv.SetCSVWriter(func(out io.Writer) *gocsv.SafeCSVWriter {
		writer := csv.NewWriter(out)
		writer.Comma = Delimiter
		return gocsv.NewSafeCSVWriter(writer)
	})
	defer gocsv.SetCSVWriter(func(out io.Writer) *gocsv.SafeCSVWriter {
		return gocsv.NewSafeCSVWriter(csv.NewWriter(out))
	})

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("error writing transactions CSV: %w", err)
	}

	return nil
}

// RuleCSVRow is the flat export shape of a categorization rule.
type RuleCSVRow struct {
	ID             string `csv:"Id"`
	Priority       int    `csv:"Prioriteit"`
	PatternKind    string `csv:"Soort"`
	MatchField     string `csv:"Veld"`
	Pattern        string `csv:"Patroon"`
	TargetCategory string `csv:"Categorie"`
	Enabled        string `csv:"Actief"`
	Source         string `csv:"Bron"`
}

// WriteRulesCSV writes a rule listing to a writer in the configured delimiter.
func WriteRulesCSV(rules []*models.Rule, w io.Writer) error {
	rows := make([]*RuleCSVRow, 0, len(rules))
	for _, rule := range rules {
		rows = append(rows, &RuleCSVRow{
			ID:             rule.ID,
			Priority:       rule.Priority,
			PatternKind:    string(rule.PatternKind),
			MatchField:     string(rule.MatchField),
			Pattern:        rule.Pattern,
			TargetCategory: rule.TargetCategory,
			Enabled:        boolCell(rule.Enabled),
			Source:         rule.Source,
		})
	}

	gocsv.SetCSVWriter(func(out io.Writer) *gocsv.SafeCSVWriter {
		writer := csv.NewWriter(out)
		writer.Comma = Delimiter
		return gocsv.NewSafeCSVWriter(writer)
	})
	defer gocsv.SetCSVWriter(func(out io.Writer) *gocsv.SafeCSVWriter {
		return gocsv.NewSafeCSVWriter(csv.NewWriter(out))
	})

	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("error writing rules CSV: %w", err)
	}

	return nil
}

// WriteTransactionsToCSVFile writes transactions to a CSV file.
func WriteTransactionsToCSVFile(transactions []*models.Transaction, csvFile string) error {
	if len(transactions) == 0 {
		return fmt.Errorf("no transactions to write")
	}

	file, err := os.Create(csvFile) // #nosec G304 -- CLI tool writes user-provided paths
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := WriteTransactionsCSV(transactions, file); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"file":  csvFile,
		"count": len(transactions),
	}).Info("Wrote transactions CSV")

	return nil
}
