package categorizer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
)

const (
	standardIBAN  = "BE68539007547034"
	maatschapIBAN = "BE71096123456769"
)

func lookupByIBAN(iban string) string {
	if iban == maatschapIBAN {
		return models.AccountTypeMaatschap
	}
	return models.AccountTypeStandard
}

func mustRule(t *testing.T, id, pattern string, field models.MatchField, category string, priority int) *models.Rule {
	t.Helper()
	rule, err := models.NewRule(id, pattern, models.PatternContains, field, category, priority)
	require.NoError(t, err)
	return rule
}

func expenseTx(ownAccount, counterparty, description string) *models.Transaction {
	return &models.Transaction{
		ID:               "2023042-0001",
		SourceType:       models.SourceLedger,
		BookingDate:      time.Date(2023, time.March, 15, 0, 0, 0, 0, time.UTC),
		Amount:           decimal.NewFromFloat(-25.00),
		Currency:         models.Currency,
		OwnAccount:       ownAccount,
		CounterpartyName: counterparty,
		Description:      description,
	}
}

func TestCategorizePriorityOrder(t *testing.T) {
	// Declared out of priority order on purpose
	rules := []*models.Rule{
		mustRule(t, "rule-low", "proximus", models.FieldCounterpartyName, "admin-kosten", 20),
		mustRule(t, "rule-high", "proximus", models.FieldCounterpartyName, "telefonie", 10),
	}

	engine := NewEngine(rules, nil)
	tx := expenseTx(standardIBAN, "Proximus NV", "Maandfactuur")

	matched, ruleID := engine.Categorize(tx, false)
	require.True(t, matched)
	assert.Equal(t, "rule-high", ruleID)
	assert.Equal(t, "telefonie", tx.Category)
	assert.Equal(t, "rule-high", tx.MatchedRuleID)
}

func TestCategorizeDisabledRulesSkipped(t *testing.T) {
	disabled := mustRule(t, "rule-off", "proximus", models.FieldCounterpartyName, "telefonie", 10)
	disabled.Enabled = false
	fallback := mustRule(t, "rule-on", "proximus", models.FieldCounterpartyName, "admin-kosten", 20)

	engine := NewEngine([]*models.Rule{disabled, fallback}, nil)
	tx := expenseTx(standardIBAN, "Proximus NV", "")

	matched, ruleID := engine.Categorize(tx, false)
	require.True(t, matched)
	assert.Equal(t, "rule-on", ruleID)
}

func TestCategorizeNoMatchIsNotAnError(t *testing.T) {
	engine := NewEngine([]*models.Rule{
		mustRule(t, "rule-001", "proximus", models.FieldCounterpartyName, "telefonie", 10),
	}, nil)

	tx := expenseTx(standardIBAN, "Onbekende handelaar", "")
	matched, _ := engine.Categorize(tx, false)

	assert.False(t, matched)
	assert.False(t, tx.IsCategorized())
}

func TestCategorizeMaatschapTwoPhase(t *testing.T) {
	// A lower-priority description rule must still beat a higher-priority
	// counterparty rule on a maatschap account.
	rules := []*models.Rule{
		mustRule(t, "rule-cp", "bank", models.FieldCounterpartyName, "bankkosten", 5),
		mustRule(t, "rule-desc", "huur", models.FieldDescription, "huur-onroerend-goed", 50),
	}
	engine := NewEngine(rules, lookupByIBAN)

	tx := expenseTx(maatschapIBAN, "Bank Belfius", "Huur praktijkruimte maart")
	matched, ruleID := engine.Categorize(tx, false)

	require.True(t, matched)
	assert.Equal(t, "rule-desc", ruleID)
	assert.Equal(t, "huur-onroerend-goed", tx.Category)

	// Standard account keeps plain priority order
	tx = expenseTx(standardIBAN, "Bank Belfius", "Huur praktijkruimte maart")
	matched, ruleID = engine.Categorize(tx, false)
	require.True(t, matched)
	assert.Equal(t, "rule-cp", ruleID)
}

func TestCategorizeMaatschapCounterpartyFallback(t *testing.T) {
	rules := []*models.Rule{
		mustRule(t, "rule-cp", "verhuurder", models.FieldCounterpartyName, "huur-onroerend-goed", 10),
		mustRule(t, "rule-desc", "telefonie", models.FieldDescription, "telefonie", 10),
	}
	engine := NewEngine(rules, lookupByIBAN)

	// No description rule matches, so phase two falls back to counterparty
	tx := expenseTx(maatschapIBAN, "Verhuurder BVBA", "Overschrijving maart")
	matched, ruleID := engine.Categorize(tx, false)

	require.True(t, matched)
	assert.Equal(t, "rule-cp", ruleID)
}

func TestCategorizeSkipsExcludedAndOverrides(t *testing.T) {
	engine := NewEngine([]*models.Rule{
		mustRule(t, "rule-001", "proximus", models.FieldCounterpartyName, "telefonie", 10),
	}, nil)

	excluded := expenseTx(standardIBAN, "Proximus NV", "")
	excluded.IsExcluded = true
	matched, _ := engine.Categorize(excluded, false)
	assert.False(t, matched)

	// Manual override survives a normal run but not a forced one
	manual := expenseTx(standardIBAN, "Proximus NV", "")
	require.NoError(t, manual.AssignCategory("admin-kosten", false))

	matched, _ = engine.Categorize(manual, false)
	assert.False(t, matched)
	assert.Equal(t, "admin-kosten", manual.Category)

	matched, _ = engine.Categorize(manual, true)
	assert.True(t, matched)
	assert.Equal(t, "telefonie", manual.Category)
	assert.False(t, manual.IsManualOverride)
}

func TestCategorizeTherapeuticFlag(t *testing.T) {
	therapeutic := true
	rule := mustRule(t, "rule-omzet", "jansen", models.FieldCounterpartyName, models.CategoryOmzet, 10)
	rule.IsTherapeutic = &therapeutic

	engine := NewEngine([]*models.Rule{rule}, nil)

	tx := expenseTx(standardIBAN, "Jansen Marie", "Consultatie")
	tx.Amount = decimal.NewFromInt(50)

	matched, _ := engine.Categorize(tx, false)
	require.True(t, matched)
	assert.True(t, tx.IsTherapeutic)
	assert.NoError(t, tx.Validate())
}

func TestCategorizeAllStats(t *testing.T) {
	rules := []*models.Rule{
		mustRule(t, "rule-001", "proximus", models.FieldCounterpartyName, "telefonie", 10),
	}
	engine := NewEngine(rules, lookupByIBAN)

	excluded := expenseTx(standardIBAN, "Proximus NV", "")
	excluded.IsExcluded = true

	transactions := []*models.Transaction{
		expenseTx(standardIBAN, "Proximus NV", ""),
		expenseTx(maatschapIBAN, "Onbekend", ""),
		excluded,
	}

	stats := engine.CategorizeAll(transactions, false)

	assert.Equal(t, 1, stats.Categorized)
	assert.Equal(t, 1, stats.Uncategorized)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Maatschap)
	assert.Equal(t, 1, stats.Standard)
	assert.Equal(t, 1, stats.RulesApplied["rule-001"])
}
