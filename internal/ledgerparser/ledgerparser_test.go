package ledgerparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
)

// ledgerRow builds one 15-column export row.
func ledgerRow(stmt, seq, cpName, description, date, amount string) string {
	cells := []string{
		"BE68 5390 0754 7034", // own account
		date,                  // booking date
		stmt,
		seq,
		"BE43 0689 9999 9501", // counterparty account
		cpName,
		"Stationsstraat 1", // street
		"3500 Hasselt",     // postal city
		description,
		date, // value date
		amount,
		"EUR",
		"GKCCBEBB", // bank code
		"BE",
		"mededeling " + seq, // communication
	}
	return strings.Join(cells, ";")
}

// ledgerExport builds a full export with the standard 13-line preamble.
func ledgerExport(rows ...string) string {
	var b strings.Builder
	for i := 0; i < DefaultHeaderLines; i++ {
		b.WriteString("preamble line\n")
	}
	for _, row := range rows {
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

func TestParseBasicImport(t *testing.T) {
	export := ledgerExport(
		ledgerRow("2023042", "0001", "APOTHEEK DE VOORZORG", "Betaling apotheek", "15/03/2023", "38,51-"),
		ledgerRow("2023042", "0002", "Jansen Marie", "Consultatie", "16/03/2023", "50,00+"),
	)

	parser := New(nil)
	transactions, session := parser.Parse(strings.NewReader(export), "export.csv", 0, false)

	require.Len(t, transactions, 2)
	assert.Equal(t, 2, session.Imported)
	assert.Equal(t, 0, session.Skipped)
	assert.Empty(t, session.Errors)

	tx := transactions[0]
	assert.Equal(t, "2023042-0001", tx.ID)
	assert.Equal(t, models.SourceLedger, tx.SourceType)
	assert.Equal(t, "-38.51", tx.Amount.String())
	assert.Equal(t, "APOTHEEK DE VOORZORG", tx.CounterpartyName)
	assert.Equal(t, 2023, tx.BookingDate.Year())

	assert.Equal(t, "50", transactions[1].Amount.String())
	assert.True(t, transactions[1].IsIncome())
}

func TestParseDuplicatesSkipped(t *testing.T) {
	row := ledgerRow("2023042", "0001", "Proximus", "Factuur", "15/03/2023", "25,00-")
	export := ledgerExport(row, row)

	parser := New(nil)
	transactions, session := parser.Parse(strings.NewReader(export), "export.csv", 0, false)

	assert.Len(t, transactions, 1)
	assert.Equal(t, 1, session.Imported)
	assert.Equal(t, 1, session.Skipped)
}

func TestParseDuplicatesAcrossRuns(t *testing.T) {
	export := ledgerExport(
		ledgerRow("2023042", "0001", "Proximus", "Factuur", "15/03/2023", "25,00-"),
	)

	existingIDs := map[string]bool{"2023042-0001": true}
	parser := New(existingIDs)

	transactions, session := parser.Parse(strings.NewReader(export), "export.csv", 0, false)
	assert.Empty(t, transactions)
	assert.Equal(t, 1, session.Skipped)

	// Same run with force re-imports the row
	parser = New(map[string]bool{"2023042-0001": true})
	transactions, session = parser.Parse(strings.NewReader(export), "export.csv", 0, true)
	assert.Len(t, transactions, 1)
	assert.Equal(t, 1, session.Imported)
}

func TestParseRowErrorsRecordedNotFatal(t *testing.T) {
	export := ledgerExport(
		ledgerRow("2023042", "0001", "Proximus", "Factuur", "15/03/2023", "25,00-"),
		ledgerRow("2023042", "0002", "Kapot", "Bad amount", "15/03/2023", "abc"),
		ledgerRow("2023042", "0003", "Kapot", "Bad date", "99/99/9999", "10,00-"),
		ledgerRow("2023042", "0004", "Jansen Marie", "Consultatie", "16/03/2023", "50,00+"),
	)

	parser := New(nil)
	transactions, session := parser.Parse(strings.NewReader(export), "export.csv", 0, false)

	assert.Len(t, transactions, 2)
	assert.Equal(t, 2, session.Imported)
	require.Len(t, session.Errors, 2)
	assert.Equal(t, 15, session.Errors[0].Line)
	assert.NotEmpty(t, session.Errors[0].RawData)
}

func TestParseRejectsNonEuro(t *testing.T) {
	row := ledgerRow("2023042", "0001", "Proximus", "Factuur", "15/03/2023", "25,00-")
	row = strings.Replace(row, ";EUR;", ";USD;", 1)
	export := ledgerExport(row)

	parser := New(nil)
	transactions, session := parser.Parse(strings.NewReader(export), "export.csv", 0, false)

	assert.Empty(t, transactions)
	require.Len(t, session.Errors, 1)
	assert.Contains(t, session.Errors[0].Message, "currency")
}

func TestParseSettlementExcludedButKept(t *testing.T) {
	export := ledgerExport(
		ledgerRow("2023042", "0001", "MASTERCARD", "MASTERCARD BETALING AFREKENING", "15/03/2023", "320,00-"),
		ledgerRow("2023042", "0002", "KREDIETKAART AFREKENING", "Betaling", "15/03/2023", "100,00-"),
		ledgerRow("2023042", "0003", "Ref 6287522061", "Betaling", "15/03/2023", "80,00-"),
		ledgerRow("2023042", "0004", "Proximus", "Factuur", "16/03/2023", "25,00-"),
	)

	parser := New(nil)
	transactions, session := parser.Parse(strings.NewReader(export), "export.csv", 0, false)

	require.Len(t, transactions, 4)
	assert.Equal(t, 3, session.Excluded)
	assert.Equal(t, 1, session.Imported)

	for _, tx := range transactions[:3] {
		assert.True(t, tx.IsExcluded)
		assert.Equal(t, ExclusionReason, tx.ExclusionReason)
	}
	assert.False(t, transactions[3].IsExcluded)
}

func TestParseFiscalYearFilter(t *testing.T) {
	export := ledgerExport(
		ledgerRow("2022099", "0001", "Proximus", "Factuur", "15/12/2022", "25,00-"),
		ledgerRow("2023001", "0001", "Proximus", "Factuur", "15/01/2023", "25,00-"),
	)

	parser := New(nil)
	transactions, session := parser.Parse(strings.NewReader(export), "export.csv", 2023, false)

	require.Len(t, transactions, 1)
	assert.Equal(t, "2023001-0001", transactions[0].ID)
	assert.Equal(t, 1, session.Imported)
}

func TestParseContentHashIdentity(t *testing.T) {
	// Rows without statement/sequence numbers fall back to a content hash
	export := ledgerExport(
		ledgerRow("", "", "BANK", "Bijdrage kredietkaart", "15/03/2023", "24,00-"),
	)

	parser := New(nil)
	transactions, _ := parser.Parse(strings.NewReader(export), "export.csv", 0, false)
	require.Len(t, transactions, 1)

	first := transactions[0].ID
	assert.True(t, strings.HasPrefix(first, "NONUM-"))
	assert.Len(t, first, len("NONUM-")+8)

	// Identity is stable across re-parses
	parser = New(nil)
	transactions, _ = parser.Parse(strings.NewReader(export), "export.csv", 0, false)
	require.Len(t, transactions, 1)
	assert.Equal(t, first, transactions[0].ID)
}

func TestParseEmptyDescriptionFallsBackToCommunication(t *testing.T) {
	export := ledgerExport(
		ledgerRow("2023042", "0001", "Proximus", "", "15/03/2023", "25,00-"),
	)

	parser := New(nil)
	transactions, _ := parser.Parse(strings.NewReader(export), "export.csv", 0, false)
	require.Len(t, transactions, 1)
	assert.Equal(t, "mededeling 0001", transactions[0].Description)
}

func TestParseShortFileYieldsEmptySession(t *testing.T) {
	parser := New(nil)
	transactions, session := parser.Parse(strings.NewReader("just one line\n"), "export.csv", 0, false)

	assert.Empty(t, transactions)
	assert.Equal(t, 0, session.Imported)
	assert.Empty(t, session.Errors)
}

func TestParseFileMissingFile(t *testing.T) {
	parser := New(nil)
	transactions, session := parser.ParseFile("does-not-exist.csv", 0, false)

	assert.Empty(t, transactions)
	require.Len(t, session.Errors, 1)
	assert.Contains(t, session.Errors[0].Message, "failed to read file")
}
