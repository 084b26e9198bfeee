// Package statementparser converts credit-card statements into canonical
// transactions. Statements arrive in two shapes: rows already split into
// table cells, and free text lines reconstructed from a statement page. Both
// shapes share sign conventions and the dedup behavior of the ledger parser;
// lines that do not look like transactions are page furniture and are
// silently ignored.
package statementparser

import (
	"crypto/md5" // #nosec G501 -- used for stable line identity, not security
	"encoding/hex"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

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

// statementNumberPattern extracts the statement number from file names like
// "6287522061_02_01_2026_09_03_17.pdf".
var statementNumberPattern = regexp.MustCompile(`^(\d+)_`)

// transactionLinePattern matches reconstructed statement lines of the form
// "DD/MM DD/MM DESCRIPTION AMOUNT EUR-", with the sign glued to the currency
// token. Anything that does not match is non-transaction text.
var transactionLinePattern = regexp.MustCompile(`^(\d{2}/\d{2})\s+(\d{2}/\d{2})\s+(.+?)\s+(\d+(?:[.,]\d+)?)\s*EUR([+-])$`)

// statementYearPattern finds the statement year in header text like
// "Transacties van 26/09/2025 tot 25/10/2025".
var statementYearPattern = regexp.MustCompile(`Transacties van \d{2}/\d{2}/(\d{4})`)

// headerKeywords mark table rows that are labels rather than transactions.
var headerKeywords = []string{"datum", "date", "transactie"}

// Parser imports transactions from credit-card statements. Like the ledger
// parser it shares a mutable existing-ID set with the caller; not safe for
// concurrent use over a shared set.
type Parser struct {
	existingIDs map[string]bool
	extractor   TextExtractor
}

// New creates a statement parser sharing the given existing-ID set.
func New(existingIDs map[string]bool) *Parser {
	if existingIDs == nil {
		existingIDs = make(map[string]bool)
	}
	return &Parser{
		existingIDs: existingIDs,
		extractor:   NewPdftotextExtractor(),
	}
}

// SetExtractor overrides the text extractor, mainly for tests.
func (p *Parser) SetExtractor(extractor TextExtractor) {
	if extractor != nil {
		p.extractor = extractor
	}
}

// ParseFile extracts text from a statement PDF and imports its transactions.
// A file whose text cannot be extracted produces a session with one
// file-level error and zero transactions.
func (p *Parser) ParseFile(filePath string, fiscalYear int, force bool) ([]*models.Transaction, *models.ImportSession) {
	filename := filepath.Base(filePath)

	text, err := p.extractor.ExtractText(filePath)
	if err != nil {
		session := models.NewImportSession(filePath)
		session.AddError(filename, 0, fmt.Sprintf("failed to read statement: %v", err), "")
		log.WithError(err).Error("Failed to extract statement text")
		return nil, session
	}

	return p.ParseText(text, filename, fiscalYear, force)
}

// ParseText imports transactions from reconstructed statement text lines. The
// statement year is inferred once from header text, falling back to the
// fiscal year and then the current year, and reused for every line. Lines
// that fail to parse are expected page furniture, not errors.
func (p *Parser) ParseText(text, filename string, fiscalYear int, force bool) ([]*models.Transaction, *models.ImportSession) {
	session := models.NewImportSession(filename)
	statementNumber := statementNumberFromFilename(filename)

	statementYear := 0
	if m := statementYearPattern.FindStringSubmatch(text); m != nil {
		statementYear, _ = strconv.Atoi(m[1])
	}
	if statementYear == 0 {
		if fiscalYear != 0 {
			statementYear = fiscalYear
		} else {
			statementYear = time.Now().Year()
		}
	}

	var transactions []*models.Transaction
	sequence := 1

	for _, line := range strings.Split(text, "\n") {
		tx := p.parseTextLine(line, filename, statementNumber, sequence, statementYear)
		if tx == nil {
			continue
		}

		if fiscalYear != 0 && tx.BookingDate.Year() != fiscalYear {
			continue
		}

		if p.existingIDs[tx.ID] && !force {
			session.Skipped++
			continue
		}

		transactions = append(transactions, tx)
		p.existingIDs[tx.ID] = true
		session.Imported++
		sequence++
	}

	log.WithFields(logrus.Fields{
		"file":     filename,
		"imported": session.Imported,
		"skipped":  session.Skipped,
	}).Info("Statement import complete")

	return transactions, session
}

// ParseTableRows imports transactions from statement rows already split into
// cells. Header rows are detected by keyword in the first cell and skipped;
// other unparseable rows are skipped silently, as best-effort extraction from
// a semi-structured document is expected to miss some rows.
func (p *Parser) ParseTableRows(rows [][]string, filename string, fiscalYear int, force bool) ([]*models.Transaction, *models.ImportSession) {
	session := models.NewImportSession(filename)
	statementNumber := statementNumberFromFilename(filename)

	var transactions []*models.Transaction
	sequence := 1

	for _, row := range rows {
		tx := p.parseTableRow(row, filename, statementNumber, sequence)
		if tx == nil {
			continue
		}

		if fiscalYear != 0 && tx.BookingDate.Year() != fiscalYear {
			continue
		}

		if p.existingIDs[tx.ID] && !force {
			session.Skipped++
			continue
		}

		transactions = append(transactions, tx)
		p.existingIDs[tx.ID] = true
		session.Imported++
		sequence++
	}

	log.WithFields(logrus.Fields{
		"file":     filename,
		"imported": session.Imported,
		"skipped":  session.Skipped,
	}).Info("Statement table import complete")

	return transactions, session
}

// parseTextLine parses one reconstructed statement line. Returns nil for
// anything that is not a transaction line.
func (p *Parser) parseTextLine(line, sourceFile, statementNumber string, sequence, statementYear int) *models.Transaction {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	m := transactionLinePattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	description := strings.TrimSpace(m[3])
	sign := m[5]

	bookingDate, err := time.Parse(dateutils.DateLayoutBelgian, fmt.Sprintf("%s/%d", m[1], statementYear))
	if err != nil {
		return nil
	}
	valueDate, err := time.Parse(dateutils.DateLayoutBelgian, fmt.Sprintf("%s/%d", m[2], statementYear))
	if err != nil {
		return nil
	}

	amount, err := amountutils.ParseBelgianAmount(m[4])
	if err != nil {
		return nil
	}

	// Trailing minus is an expense, trailing plus a refund
	if sign == "-" {
		amount = amount.Abs().Neg()
	} else {
		amount = amount.Abs()
	}

	if amount.IsZero() {
		return nil
	}

	// Content-hash identity keeps re-import detection independent of line
	// order within the statement.
	hash := contentHash(dateutils.ToISODate(bookingDate), amount.String(), description)
	id := fmt.Sprintf("MC-%s-%s-%s", statementNumber, bookingDate.Format("20060102"), hash)

	tx := &models.Transaction{
		ID:               id,
		SourceFile:       sourceFile,
		SourceType:       models.SourceStatement,
		StatementNumber:  statementNumber,
		SequenceNumber:   strconv.Itoa(sequence),
		BookingDate:      bookingDate,
		ValueDate:        valueDate,
		Amount:           amount,
		Currency:         models.Currency,
		CounterpartyName: truncate(description, 100),
		Description:      description,
	}

	if err := tx.Validate(); err != nil {
		log.WithError(err).Debug("Skipping invalid statement line")
		return nil
	}

	return tx
}

// parseTableRow parses one statement table row. Expected cells: transaction
// date, settlement date, description, amount. Returns nil for header rows and
// rows that cannot be parsed.
func (p *Parser) parseTableRow(row []string, sourceFile, statementNumber string, sequence int) *models.Transaction {
	if len(row) < 4 {
		return nil
	}

	cells := make([]string, len(row))
	for i, cell := range row {
		cells[i] = strings.TrimSpace(cell)
	}

	first := strings.ToLower(cells[0])
	for _, keyword := range headerKeywords {
		if strings.Contains(first, keyword) {
			return nil
		}
	}

	bookingDate, err := dateutils.ParseBelgianDate(cells[0])
	if err != nil {
		return nil
	}

	// Settlement date defaults to the booking date when unparseable
	valueDate := bookingDate
	if cells[1] != "" {
		if parsed, err := dateutils.ParseBelgianDate(cells[1]); err == nil {
			valueDate = parsed
		}
	}

	description := cells[2]
	if description == "" {
		return nil
	}

	amountStr := cells[3]
	if amountStr == "" {
		amountStr = cells[len(cells)-1]
	}
	if amountStr == "" {
		return nil
	}

	// A leading plus denotes a refund; the default is an outflow.
	isRefund := strings.HasPrefix(amountStr, "+")
	amountStr = strings.TrimSpace(strings.TrimPrefix(amountStr, "+"))

	amount, err := amountutils.ParseBelgianAmount(amountStr)
	if err != nil {
		return nil
	}
	if isRefund {
		amount = amount.Abs()
	} else {
		amount = amount.Abs().Neg()
	}

	if amount.IsZero() {
		return nil
	}

	tx := &models.Transaction{
		ID:               fmt.Sprintf("MC-%s-%04d", statementNumber, sequence),
		SourceFile:       sourceFile,
		SourceType:       models.SourceStatement,
		StatementNumber:  statementNumber,
		SequenceNumber:   strconv.Itoa(sequence),
		BookingDate:      bookingDate,
		ValueDate:        valueDate,
		Amount:           amount,
		Currency:         models.Currency,
		CounterpartyName: truncate(description, 100),
		Description:      description,
	}

	if err := tx.Validate(); err != nil {
		log.WithError(err).Debug("Skipping invalid statement row")
		return nil
	}

	return tx
}

// statementNumberFromFilename extracts the statement number, falling back to
// "MC" when the filename does not carry one.
func statementNumberFromFilename(filename string) string {
	if m := statementNumberPattern.FindStringSubmatch(filename); m != nil {
		return m[1]
	}
	return "MC"
}

// contentHash derives a short stable identity from line content.
func contentHash(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "|"))) // #nosec G401 -- identity, not security
	return hex.EncodeToString(sum[:])[:8]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
