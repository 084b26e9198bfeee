// Package ledgerparser converts semicolon-delimited bank ledger exports into
// canonical transactions. The export carries a fixed preamble of header lines
// and a fixed column layout. Row-level problems are recorded on the import
// session and never abort the file; only a whole-file open failure produces a
// session-level error.
package ledgerparser

import (
	"bufio"
	"crypto/md5" // #nosec G501 -- used for stable short row identity, not security
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/amountutils"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/config"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/dateutils"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
)

var log = config.Logger

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Ledger export column indices (0-based)
const (
	colOwnAccount          = 0
	colBookingDate         = 1
	colStatementNumber     = 2
	colSequenceNumber      = 3
	colCounterpartyAccount = 4
	colCounterpartyName    = 5
	colStreet              = 6
	colPostalCity          = 7
	colDescription         = 8
	colValueDate           = 9
	colAmount              = 10
	colCurrency            = 11
	colBankCode            = 12
	colCountryCode         = 13
	colCommunication       = 14
)

// minColumns is the minimum number of cells a row needs to be parseable.
const minColumns = 15

// DefaultHeaderLines is the number of preamble lines before the column header
// in a ledger export.
const DefaultHeaderLines = 13

// ExclusionReason marks credit-card settlement rows whose detail arrives via
// the statement parser.
const ExclusionReason = "Mastercard settlement - details in card statement"

// settlementPatterns identify credit-card settlement artifacts in the
// description or counterparty name.
var settlementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)MASTERCARD.*AFREKENING`),
	regexp.MustCompile(`(?i)KREDIETKAART.*AFREKENING`),
	regexp.MustCompile(`(?i)6287522061`), // Mastercard customer reference
}

// Parser imports transactions from ledger CSV exports. The existing-ID set is
// shared with the caller and updated in place so that duplicates are caught
// both within one file and across sequential files in the same invocation.
// Not safe for concurrent use over a shared ID set.
type Parser struct {
	existingIDs map[string]bool
	delimiter   rune
	headerLines int
}

// New creates a ledger parser sharing the given existing-ID set. A nil set is
// replaced with an empty one.
func New(existingIDs map[string]bool) *Parser {
	if existingIDs == nil {
		existingIDs = make(map[string]bool)
	}
	return &Parser{
		existingIDs: existingIDs,
		delimiter:   ';',
		headerLines: DefaultHeaderLines,
	}
}

// SetDelimiter overrides the cell delimiter (defaults to semicolon).
func (p *Parser) SetDelimiter(delim rune) {
	p.delimiter = delim
}

// SetHeaderLines overrides the number of preamble lines to discard.
func (p *Parser) SetHeaderLines(n int) {
	if n >= 0 {
		p.headerLines = n
	}
}

// ParseFile imports transactions from a single ledger export file. A file
// that cannot be opened produces a session with one file-level error and zero
// transactions; the error never propagates past this boundary.
func (p *Parser) ParseFile(filePath string, fiscalYear int, force bool) ([]*models.Transaction, *models.ImportSession) {
	filename := filepath.Base(filePath)

	file, err := os.Open(filePath) // #nosec G304 -- CLI tool operates on user-provided paths
	if err != nil {
		session := models.NewImportSession(filePath)
		session.AddError(filename, 0, fmt.Sprintf("failed to read file: %v", err), "")
		log.WithError(err).Error("Failed to open ledger export")
		return nil, session
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file")
		}
	}()

	return p.Parse(file, filename, fiscalYear, force)
}

// Parse imports transactions from an open ledger export stream. The filename
// is used for audit and error reporting only.
func (p *Parser) Parse(r io.Reader, filename string, fiscalYear int, force bool) ([]*models.Transaction, *models.ImportSession) {
	session := models.NewImportSession(filename)

	var transactions []*models.Transaction

	buffered := bufio.NewReader(r)
	for i := 0; i < p.headerLines; i++ {
		if _, err := buffered.ReadString('\n'); err != nil {
			// Fewer lines than the preamble means an empty export, not an error.
			log.WithField("file", filename).Debug("Ledger export shorter than preamble")
			return nil, session
		}
	}

	reader := csv.NewReader(buffered)
	reader.Comma = p.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	lineNum := p.headerLines
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			session.AddError(filename, lineNum, fmt.Sprintf("unreadable row: %v", err), "")
			continue
		}

		if len(record) < minColumns {
			// Blank or malformed row
			continue
		}

		tx, err := p.parseRow(record, filename)
		if err != nil {
			session.AddError(filename, lineNum, err.Error(), strings.Join(record, ";"))
			log.WithError(err).WithField("line", lineNum).Error("Error parsing ledger row")
			continue
		}

		if fiscalYear != 0 && tx.BookingDate.Year() != fiscalYear {
			continue
		}

		if isSettlement(tx) {
			tx.IsExcluded = true
			tx.ExclusionReason = ExclusionReason
			session.Excluded++
			transactions = append(transactions, tx)
			continue
		}

		if p.existingIDs[tx.ID] && !force {
			session.Skipped++
			continue
		}

		transactions = append(transactions, tx)
		p.existingIDs[tx.ID] = true
		session.Imported++
	}

	log.WithFields(logrus.Fields{
		"file":     filename,
		"imported": session.Imported,
		"skipped":  session.Skipped,
		"excluded": session.Excluded,
	}).Info("Ledger import complete")

	return transactions, session
}

// parseRow converts one ledger row into a validated transaction.
func (p *Parser) parseRow(record []string, sourceFile string) (*models.Transaction, error) {
	statementNumber := strings.TrimSpace(record[colStatementNumber])
	sequenceNumber := strings.TrimSpace(record[colSequenceNumber])

	bookingDate, err := dateutils.ParseBelgianDate(record[colBookingDate])
	if err != nil {
		return nil, err
	}

	valueDate, err := dateutils.ParseBelgianDate(record[colValueDate])
	if err != nil {
		return nil, err
	}

	amount, err := amountutils.ParseBelgianAmount(record[colAmount])
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(record[colCurrency]))
	if currency != models.Currency {
		return nil, fmt.Errorf("unsupported currency: %s", currency)
	}

	description := strings.TrimSpace(record[colDescription])
	communication := strings.TrimSpace(record[colCommunication])
	if description == "" {
		description = communication
	}

	// Rows without statement/sequence numbers (card fees and the like) get a
	// content hash so the same row keeps the same identity across re-imports.
	var id string
	if statementNumber != "" && sequenceNumber != "" {
		id = fmt.Sprintf("%s-%s", statementNumber, sequenceNumber)
	} else {
		id = "NONUM-" + contentHash(dateutils.ToISODate(bookingDate), amount.String(), description)
	}

	tx := &models.Transaction{
		ID:                     id,
		SourceFile:             sourceFile,
		SourceType:             models.SourceLedger,
		StatementNumber:        statementNumber,
		SequenceNumber:         sequenceNumber,
		BookingDate:            bookingDate,
		ValueDate:              valueDate,
		Amount:                 amount,
		Currency:               currency,
		CounterpartyName:       strings.TrimSpace(record[colCounterpartyName]),
		CounterpartyAccount:    strings.TrimSpace(record[colCounterpartyAccount]),
		CounterpartyStreet:     strings.TrimSpace(record[colStreet]),
		CounterpartyPostalCity: strings.TrimSpace(record[colPostalCity]),
		CounterpartyBankCode:   strings.TrimSpace(record[colBankCode]),
		CounterpartyCountry:    strings.TrimSpace(record[colCountryCode]),
		OwnAccount:             strings.TrimSpace(record[colOwnAccount]),
		Description:            description,
		Communication:          communication,
	}

	if err := tx.Validate(); err != nil {
		return nil, err
	}

	return tx, nil
}

// contentHash derives a short stable identity from row content.
func contentHash(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "|"))) // #nosec G401 -- identity, not security
	return hex.EncodeToString(sum[:])[:8]
}

// isSettlement reports whether a transaction is a credit-card settlement
// artifact. Such rows are flagged and kept, not dropped, because their detail
// arrives via the statement parser.
func isSettlement(tx *models.Transaction) bool {
	for _, pattern := range settlementPatterns {
		if tx.Description != "" && pattern.MatchString(tx.Description) {
			return true
		}
		if tx.CounterpartyName != "" && pattern.MatchString(tx.CounterpartyName) {
			return true
		}
	}
	return false
}
