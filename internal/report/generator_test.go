package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
)

func reportTransaction(id, category string, amount float64, therapeutic bool) *models.Transaction {
	return &models.Transaction{
		ID:            id,
		SourceType:    models.SourceLedger,
		BookingDate:   time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromFloat(amount),
		Currency:      models.Currency,
		Category:      category,
		IsTherapeutic: therapeutic,
	}
}

func reportCategories() map[string]models.Category {
	return map[string]models.Category{
		"omzet":     {ID: "omzet", Name: "Omzet", Type: models.CategoryTypeIncome},
		"telefonie": {ID: "telefonie", Name: "Telefonie", Type: models.CategoryTypeExpense},
		"vervoer":   {ID: "vervoer", Name: "Vervoer", Type: models.CategoryTypeExpense},
	}
}

func TestGenerate(t *testing.T) {
	excluded := reportTransaction("x-1", "", -320, false)
	excluded.IsExcluded = true

	otherYear := reportTransaction("x-2", "omzet", 100, false)
	otherYear.BookingDate = time.Date(2022, time.December, 31, 0, 0, 0, 0, time.UTC)

	transactions := []*models.Transaction{
		reportTransaction("t-1", "omzet", 500, true),
		reportTransaction("t-2", "omzet", 250, false),
		reportTransaction("t-3", "telefonie", -75, false),
		reportTransaction("t-4", "vervoer", -25, false),
		reportTransaction("t-5", "", -40, false),
		excluded,
		otherYear,
	}

	assets := []*models.Asset{{
		ID:                "laptop-2023",
		Name:              "Laptop",
		PurchaseDate:      time.Date(2023, time.February, 1, 0, 0, 0, 0, time.UTC),
		PurchaseAmount:    decimal.NewFromInt(1500),
		DepreciationYears: 3,
		Source:            models.AssetSourceManual,
	}}

	r := Generate(transactions, reportCategories(), assets, 2023)

	assert.Equal(t, 2023, r.FiscalYear)
	require.Len(t, r.Items, 3)

	// Income first, then expenses alphabetically
	assert.Equal(t, "omzet", r.Items[0].CategoryID)
	assert.Equal(t, "telefonie", r.Items[1].CategoryID)
	assert.Equal(t, "vervoer", r.Items[2].CategoryID)

	assert.Equal(t, "750", r.Items[0].Total.String())
	assert.Equal(t, 2, r.Items[0].Count)

	assert.Equal(t, "500", r.TherapeuticOmzet.String())
	assert.Equal(t, "250", r.OtherOmzet.String())

	assert.Equal(t, 1, r.UncategorizedN)
	assert.Equal(t, "-40", r.Uncategorized.String())
	assert.Equal(t, 1, r.Excluded)

	assert.Equal(t, "500", r.DepreciationTotal.String())
	assert.Equal(t, "750", r.TotalIncome().String())
	assert.Equal(t, "-600", r.TotalExpenses().String())
	assert.Equal(t, "150", r.ProfitLoss().String())
}

func TestGenerateUnknownCategoryTypedByAmountSign(t *testing.T) {
	transactions := []*models.Transaction{
		reportTransaction("t-1", "sponsoring", -50, false),
	}

	r := Generate(transactions, map[string]models.Category{}, nil, 2023)

	require.Len(t, r.Items, 1)
	assert.Equal(t, models.CategoryTypeExpense, r.Items[0].Type)
	assert.Equal(t, "sponsoring", r.Items[0].CategoryName)
}

func TestFormatConsole(t *testing.T) {
	transactions := []*models.Transaction{
		reportTransaction("t-1", "omzet", 750, false),
		reportTransaction("t-2", "telefonie", -75, false),
	}

	r := Generate(transactions, reportCategories(), nil, 2023)
	out := FormatConsole(r)

	assert.Contains(t, out, "Resultatenrekening 2023")
	assert.Contains(t, out, "Omzet")
	assert.Contains(t, out, "Totaal inkomsten")
	assert.Contains(t, out, "750,00")
	assert.Contains(t, out, "Resultaat")
	assert.Contains(t, out, "675,00")
}

func TestExportToExcel(t *testing.T) {
	transactions := []*models.Transaction{
		reportTransaction("t-1", "omzet", 750, false),
		reportTransaction("t-2", "telefonie", -75, false),
	}

	r := Generate(transactions, reportCategories(), nil, 2023)

	path := filepath.Join(t.TempDir(), "resultaat.xlsx")
	require.NoError(t, ExportToExcel(r, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, f.Close())
	}()

	rows, err := f.GetRows("Resultaat 2023")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Categorie", "Type", "Bedrag", "Aantal"}, rows[0])
}
