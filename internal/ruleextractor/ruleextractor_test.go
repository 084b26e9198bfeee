package ruleextractor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
)

// writeWorkbook creates a test workbook with a header row and the given
// counterparty/category rows.
func writeWorkbook(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() {
		require.NoError(t, f.Close())
	}()

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))

	all := append([][]string{{"Datum", "Tegenpartij", "Bedrag", "Categorie"}}, rows...)
	for i, row := range all {
		for j, cell := range row {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, ref, cell))
		}
	}

	path := filepath.Join(t.TempDir(), "boekhouding.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func repeat(n int, counterparty, category string) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{"15/03/2023", counterparty, "25,00", category}
	}
	return rows
}

func TestExtractFromExcel(t *testing.T) {
	rows := append(
		repeat(5, "Proximus NV", "Telefonie"),
		repeat(3, "Jansen Marie", "Omzet")...,
	)
	rows = append(rows, repeat(1, "Eenmalig BVBA", "Vervoer")...)

	path := writeWorkbook(t, "Verrichtingen 2023", rows)

	extractor := New(2)
	rules, ambiguous, err := extractor.ExtractFromExcel(path, "Verrichtingen")
	require.NoError(t, err)
	assert.Empty(t, ambiguous)

	// The single occurrence stays below the threshold
	require.Len(t, rules, 2)

	// Sorted by frequency, most frequent first
	assert.Equal(t, "Proximus NV", rules[0].Pattern)
	assert.Equal(t, "telefonie", rules[0].TargetCategory)
	assert.Equal(t, models.PatternContains, rules[0].PatternKind)
	assert.Equal(t, models.FieldCounterpartyName, rules[0].MatchField)
	assert.Equal(t, models.RuleSourceExtracted, rules[0].Source)

	assert.Equal(t, "Jansen Marie", rules[1].Pattern)
	assert.Equal(t, "omzet", rules[1].TargetCategory)
	assert.Greater(t, rules[1].Priority, rules[0].Priority)
}

func TestExtractAmbiguousPatterns(t *testing.T) {
	// 6/4 split is below the 80% dominance threshold, 9/1 is above it
	rows := append(
		repeat(6, "Gemengd BVBA", "Omzet"),
		repeat(4, "Gemengd BVBA", "Vervoer")...,
	)
	rows = append(rows, repeat(9, "Bijna Zuiver", "Telefonie")...)
	rows = append(rows, repeat(1, "Bijna Zuiver", "Vervoer")...)

	path := writeWorkbook(t, "Verrichtingen", rows)

	rules, ambiguous, err := New(2).ExtractFromExcel(path, "Verrichtingen")
	require.NoError(t, err)

	require.Len(t, rules, 1)
	assert.Equal(t, "Bijna Zuiver", rules[0].Pattern)
	assert.Equal(t, "telefonie", rules[0].TargetCategory)

	require.Len(t, ambiguous, 1)
	assert.Equal(t, "Gemengd BVBA", ambiguous[0].Pattern)
	assert.Equal(t, 10, ambiguous[0].Total)
	assert.Equal(t, 6, ambiguous[0].Categories["omzet"])
	assert.Equal(t, 4, ambiguous[0].Categories["vervoer"])
}

func TestExtractNoMatchingSheet(t *testing.T) {
	path := writeWorkbook(t, "Blad1", repeat(3, "Proximus NV", "Telefonie"))

	rules, ambiguous, err := New(2).ExtractFromExcel(path, "Verrichtingen")
	require.NoError(t, err)
	assert.Empty(t, rules)
	assert.Empty(t, ambiguous)
}

func TestNormalizePattern(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Collapses whitespace", "Proximus   NV ", "Proximus NV"},
		{"Too short", "NV", ""},
		{"Mostly digits", "12345 A", ""},
		{"Half digits allowed", "AB 12", "AB 12"},
		{"Plain name", "Apotheek", "Apotheek"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizePattern(tc.input))
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "omzet", normalizeCategory("Omzet"))
	assert.Equal(t, "vapz", normalizeCategory("Vrij Aanvullend Pensioen Zelfstandigen"))
	assert.Equal(t, "telefonie", normalizeCategory(" telefonie "))
	assert.Empty(t, normalizeCategory("volstrekt onbekend"))
}

func TestMergeRules(t *testing.T) {
	ruleA, err := models.NewRule("x-1", "Proximus", models.PatternContains, models.FieldCounterpartyName, "telefonie", 70)
	require.NoError(t, err)
	ruleB, err := models.NewRule("x-2", "PROXIMUS", models.PatternContains, models.FieldCounterpartyName, "admin-kosten", 80)
	require.NoError(t, err)
	ruleC, err := models.NewRule("x-3", "Jansen", models.PatternContains, models.FieldCounterpartyName, "omzet", 90)
	require.NoError(t, err)

	merged := MergeRules([]*models.Rule{ruleA, ruleB, ruleC})

	// Case-insensitive dedup, first occurrence wins, renumbered
	require.Len(t, merged, 2)
	assert.Equal(t, "rule-001", merged[0].ID)
	assert.Equal(t, "telefonie", merged[0].TargetCategory)
	assert.Equal(t, 10, merged[0].Priority)
	assert.Equal(t, "rule-002", merged[1].ID)
	assert.Equal(t, 20, merged[1].Priority)
}
