// Package ruleextractor mines historical, already-categorized spreadsheets to
// bootstrap categorization rules. It is purely advisory: it never writes
// rules itself, and ambiguous patterns are reported as data for manual
// review, never as errors.
package ruleextractor

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/config"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
)

var log = config.Logger

// SetLogger allows setting a configured logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// dominanceThreshold is the minimum share the most frequent category must
// reach before minority occurrences are treated as historical
// miscategorization noise.
const dominanceThreshold = 0.8

// categoryNameToID maps the free-text Dutch category labels found in the
// historical spreadsheets to canonical category ids.
var categoryNameToID = map[string]string{
	"omzet":                                "omzet",
	"admin kosten":                         "admin-kosten",
	"bankkosten":                           "bankkosten",
	"boeken en tijdschriften":              "boeken-en-tijdschriften",
	"bureelbenodigdheden":                  "bureelbenodigdheden",
	"drukwerk en publiciteit":              "drukwerk-en-publiciteit",
	"huur onroerend goed":                  "huur-onroerend-goed",
	"interne storting":                     "interne-storting",
	"investeringen over 3 jaar":            "investeringen-over-3-jaar",
	"klein materiaal":                      "klein-materiaal",
	"kosten opleiding en vorming":          "kosten-opleiding-en-vorming",
	"licenties software":                   "licenties-software",
	"loon":                                 "loon",
	"maatschap huis van meraki":            "maatschap-huis-van-meraki",
	"medisch materiaal":                    "medisch-materiaal",
	"onthaal":                              "onthaal",
	"relatiegeschenken":                    "relatiegeschenken",
	"restaurant":                           "restaurant",
	"sociale bijdragen":                    "sociale-bijdragen",
	"telefonie":                            "telefonie",
	"verkeerde rekening":                   "verkeerde-rekening",
	"verzekering beroepsaansprakelijkheid": "verzekering-beroepsaansprakelijkheid",
	"vrij aanvullend pensioen zelfstandigen": "vapz",
	"vapz":       "vapz",
	"vervoer":    "vervoer",
	"mastercard": "mastercard",
	"sponsoring": "sponsoring",
}

// AmbiguousPattern is a mined pattern whose historical category assignments
// are too mixed to emit a rule. The breakdown is reported for manual review.
type AmbiguousPattern struct {
	Pattern    string         `json:"pattern" yaml:"pattern"`
	Categories map[string]int `json:"categories" yaml:"categories"`
	Total      int            `json:"total" yaml:"total"`
}

// Extractor mines counterparty-to-category mappings from Excel workbooks.
type Extractor struct {
	minOccurrences int
}

// New creates an extractor. Patterns seen fewer than minOccurrences times
// never produce a rule.
func New(minOccurrences int) *Extractor {
	if minOccurrences < 1 {
		minOccurrences = 1
	}
	return &Extractor{minOccurrences: minOccurrences}
}

// ExtractFromExcel mines rules from every sheet of the workbook whose name
// contains sheetName (case-insensitive). Column positions are discovered by
// header keyword, not fixed position.
func (e *Extractor) ExtractFromExcel(filePath, sheetName string) ([]*models.Rule, []AmbiguousPattern, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening Excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Warn("Failed to close Excel file")
		}
	}()

	var matching []string
	for _, sheet := range f.GetSheetList() {
		if strings.Contains(strings.ToLower(sheet), strings.ToLower(sheetName)) {
			matching = append(matching, sheet)
		}
	}

	if len(matching) == 0 {
		log.WithFields(logrus.Fields{
			"file":  filePath,
			"sheet": sheetName,
		}).Warn("No matching sheets in workbook")
		return nil, nil, nil
	}

	mappings := make(map[string]map[string]int)
	for _, sheet := range matching {
		rows, err := f.GetRows(sheet)
		if err != nil {
			log.WithError(err).WithField("sheet", sheet).Warn("Failed to read sheet rows")
			continue
		}
		e.accumulateMappings(rows, mappings)
	}

	rules, ambiguous := e.generateRules(mappings)
	return rules, ambiguous, nil
}

// accumulateMappings updates the pattern frequency table from one sheet.
func (e *Extractor) accumulateMappings(rows [][]string, mappings map[string]map[string]int) {
	if len(rows) < 2 {
		return
	}

	counterpartyCol, categoryCol := findColumns(rows[0])
	if counterpartyCol < 0 || categoryCol < 0 {
		log.Warn("Could not find counterparty or category columns in sheet")
		return
	}

	for _, row := range rows[1:] {
		counterparty := cellValue(row, counterpartyCol)
		category := cellValue(row, categoryCol)
		if counterparty == "" || category == "" {
			continue
		}

		pattern := NormalizePattern(counterparty)
		if pattern == "" {
			continue
		}

		categoryID := normalizeCategory(category)
		if categoryID == "" {
			continue
		}

		if mappings[pattern] == nil {
			mappings[pattern] = make(map[string]int)
		}
		mappings[pattern][categoryID]++
	}
}

// findColumns locates the counterparty-like and category-like columns by
// case-insensitive header keyword.
func findColumns(header []string) (counterparty, category int) {
	counterparty, category = -1, -1
	for i, col := range header {
		colLower := strings.ToLower(col)
		switch {
		case strings.Contains(colLower, "tegenpartij") || strings.Contains(colLower, "naam"):
			counterparty = i
		case strings.Contains(colLower, "categorie") || strings.Contains(colLower, "category") || strings.Contains(colLower, "rubriek"):
			category = i
		}
	}
	return counterparty, category
}

func cellValue(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// NormalizePattern collapses whitespace and discards strings that are
// unlikely to be useful match patterns: under 3 characters, or more than half
// digits.
func NormalizePattern(name string) string {
	name = strings.Join(strings.Fields(name), " ")

	runes := []rune(name)
	if len(runes) < 3 {
		return ""
	}

	digits := 0
	for _, r := range runes {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits*2 > len(runes) {
		return ""
	}

	return name
}

// normalizeCategory maps a free-text category label to a canonical category
// id, falling back to a substring match in both directions.
func normalizeCategory(category string) string {
	categoryLower := strings.ToLower(strings.TrimSpace(category))

	if id, ok := categoryNameToID[categoryLower]; ok {
		return id
	}

	for name, id := range categoryNameToID {
		if strings.Contains(categoryLower, name) || strings.Contains(name, categoryLower) {
			return id
		}
	}

	log.WithField("category", category).Debug("Unknown category label")
	return ""
}

// generateRules turns the frequency table into contains-type rules, flagging
// ambiguous patterns instead of guessing. Patterns are processed from most to
// least frequent so that generated priorities favor high-value patterns.
func (e *Extractor) generateRules(mappings map[string]map[string]int) ([]*models.Rule, []AmbiguousPattern) {
	type entry struct {
		pattern string
		total   int
	}

	entries := make([]entry, 0, len(mappings))
	for pattern, categories := range mappings {
		total := 0
		for _, count := range categories {
			total += count
		}
		entries = append(entries, entry{pattern: pattern, total: total})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].total != entries[j].total {
			return entries[i].total > entries[j].total
		}
		return entries[i].pattern < entries[j].pattern
	})

	var rules []*models.Rule
	var ambiguous []AmbiguousPattern
	priority := 10

	for _, ent := range entries {
		if ent.total < e.minOccurrences {
			continue
		}

		categories := mappings[ent.pattern]

		targetCategory := ""
		if len(categories) > 1 {
			dominantCategory, dominantCount := "", 0
			for category, count := range categories {
				if count > dominantCount || (count == dominantCount && category < dominantCategory) {
					dominantCategory, dominantCount = category, count
				}
			}

			if float64(dominantCount) < dominanceThreshold*float64(ent.total) {
				ambiguous = append(ambiguous, AmbiguousPattern{
					Pattern:    ent.pattern,
					Categories: categories,
					Total:      ent.total,
				})
				continue
			}

			targetCategory = dominantCategory
		} else {
			for category := range categories {
				targetCategory = category
			}
		}

		rule, err := models.NewRule(
			fmt.Sprintf("rule-%03d", len(rules)+1),
			ent.pattern,
			models.PatternContains,
			models.FieldCounterpartyName,
			targetCategory,
			priority,
		)
		if err != nil {
			log.WithError(err).WithField("pattern", ent.pattern).Warn("Skipping invalid mined rule")
			continue
		}
		rule.Source = models.RuleSourceExtracted

		rules = append(rules, rule)
		priority++
	}

	log.WithFields(logrus.Fields{
		"rules":     len(rules),
		"ambiguous": len(ambiguous),
	}).Info("Rule extraction complete")

	return rules, ambiguous
}

// ExtractFromFiles mines rules from multiple workbooks and merges the
// results: rules are deduplicated by case-insensitive pattern text, then ids
// and priorities are renumbered sequentially so the merged output is
// deterministic and independent of input file order.
func ExtractFromFiles(files []string, sheetName string, minOccurrences int) ([]*models.Rule, []AmbiguousPattern, error) {
	extractor := New(minOccurrences)

	var allRules []*models.Rule
	var allAmbiguous []AmbiguousPattern

	for _, filePath := range files {
		lower := strings.ToLower(filePath)
		if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".xls") {
			log.WithField("file", filePath).Warn("Skipping non-Excel file")
			continue
		}

		rules, ambiguous, err := extractor.ExtractFromExcel(filePath, sheetName)
		if err != nil {
			return nil, nil, err
		}
		allRules = append(allRules, rules...)
		allAmbiguous = append(allAmbiguous, ambiguous...)
	}

	merged := MergeRules(allRules)
	return merged, allAmbiguous, nil
}

// MergeRules deduplicates rules by lowercased pattern (first occurrence wins)
// and renumbers ids and priorities sequentially.
func MergeRules(rules []*models.Rule) []*models.Rule {
	seen := make(map[string]bool)
	var unique []*models.Rule

	for _, rule := range rules {
		key := strings.ToLower(rule.Pattern)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, rule)
	}

	for i, rule := range unique {
		rule.Priority = (i + 1) * 10
		rule.ID = fmt.Sprintf("rule-%03d", i+1)
	}

	return unique
}
