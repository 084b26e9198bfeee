// Package categorizer applies an ordered rule set to transactions. Rules are
// sorted by ascending priority once at engine construction and split into
// description and counterparty views to support two-phase matching for
// maatschap accounts, where narrative text is a more reliable signal than the
// counterparty identity.
package categorizer

import (
	"sort"

	"github.com/sirupsen/logrus"

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

// AccountTypeLookup resolves an IBAN to an account type ("standard" or
// "maatschap"). A nil lookup treats every account as standard.
type AccountTypeLookup func(iban string) string

// Engine categorizes transactions against a fixed rule set. It mutates
// transactions in place and is not safe for concurrent use over the same
// transaction list.
type Engine struct {
	rules             []*models.Rule
	descriptionRules  []*models.Rule
	counterpartyRules []*models.Rule
	accountType       AccountTypeLookup
}

// NewEngine creates an engine over the given rules. The rules are sorted by
// priority here, once, and evaluated read-only afterwards; lower priority
// values evaluate first, ties keep list order.
func NewEngine(rules []*models.Rule, accountType AccountTypeLookup) *Engine {
	sorted := make([]*models.Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	e := &Engine{
		rules:       sorted,
		accountType: accountType,
	}

	for _, r := range sorted {
		switch r.MatchField {
		case models.FieldDescription:
			e.descriptionRules = append(e.descriptionRules, r)
		case models.FieldCounterpartyName, models.FieldCounterpartyAccount:
			e.counterpartyRules = append(e.counterpartyRules, r)
		}
	}

	log.WithFields(logrus.Fields{
		"rules":        len(e.rules),
		"description":  len(e.descriptionRules),
		"counterparty": len(e.counterpartyRules),
	}).Debug("Categorization engine initialized")

	return e
}

// accountTypeFor determines the owning account's type for a transaction,
// defaulting to standard when no lookup is supplied or the account is
// unknown.
func (e *Engine) accountTypeFor(tx *models.Transaction) string {
	if e.accountType == nil || tx.OwnAccount == "" {
		return models.AccountTypeStandard
	}

	if t := e.accountType(tx.OwnAccount); t == models.AccountTypeMaatschap {
		return models.AccountTypeMaatschap
	}
	return models.AccountTypeStandard
}

// tryRules evaluates rules in order and applies the first match. Disabled
// rules are skipped entirely.
func (e *Engine) tryRules(tx *models.Transaction, rules []*models.Rule) (bool, string) {
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}

		if !rule.Matches(rule.FieldValue(tx)) {
			continue
		}

		tx.Category = rule.TargetCategory
		tx.MatchedRuleID = rule.ID
		tx.IsManualOverride = false
		if rule.IsTherapeutic != nil {
			tx.IsTherapeutic = *rule.IsTherapeutic
		}

		return true, rule.ID
	}

	return false, ""
}

// Categorize applies the rule set to a single transaction. Excluded
// transactions and transactions that are already categorized or manually
// overridden are left alone unless force is set. A transaction with no
// matching rule simply stays uncategorized; that is a normal outcome, not an
// error.
func (e *Engine) Categorize(tx *models.Transaction, force bool) (bool, string) {
	if tx.IsExcluded {
		return false, ""
	}

	if tx.IsCategorized() && !force {
		return false, ""
	}

	if tx.IsManualOverride && !force {
		return false, ""
	}

	if e.accountTypeFor(tx) == models.AccountTypeMaatschap {
		// Phase 1: description rules
		if matched, ruleID := e.tryRules(tx, e.descriptionRules); matched {
			log.WithFields(logrus.Fields{
				"transaction": tx.ID,
				"rule":        ruleID,
				"category":    tx.Category,
			}).Debug("Maatschap transaction matched description rule")
			return true, ruleID
		}

		// Phase 2: counterparty rules, only when no description rule matched
		if matched, ruleID := e.tryRules(tx, e.counterpartyRules); matched {
			log.WithFields(logrus.Fields{
				"transaction": tx.ID,
				"rule":        ruleID,
				"category":    tx.Category,
			}).Debug("Maatschap transaction matched counterparty rule")
			return true, ruleID
		}

		return false, ""
	}

	matched, ruleID := e.tryRules(tx, e.rules)
	if matched {
		log.WithFields(logrus.Fields{
			"transaction": tx.ID,
			"rule":        ruleID,
			"category":    tx.Category,
		}).Debug("Transaction matched rule")
	}
	return matched, ruleID
}

// CategorizeAll applies the rule set to every transaction and returns run
// statistics, including a per-rule hit histogram for spotting high-value
// rules.
func (e *Engine) CategorizeAll(transactions []*models.Transaction, force bool) *models.CategorizationStats {
	stats := models.NewCategorizationStats()

	for _, tx := range transactions {
		if tx.IsExcluded {
			stats.Skipped++
			continue
		}

		if e.accountTypeFor(tx) == models.AccountTypeMaatschap {
			stats.Maatschap++
		} else {
			stats.Standard++
		}

		matched, ruleID := e.Categorize(tx, force)
		if matched {
			stats.Categorized++
			stats.RulesApplied[ruleID]++
		} else if !tx.IsCategorized() {
			stats.Uncategorized++
		}
	}

	log.WithFields(logrus.Fields{
		"categorized":   stats.Categorized,
		"uncategorized": stats.Uncategorized,
		"skipped":       stats.Skipped,
		"maatschap":     stats.Maatschap,
		"standard":      stats.Standard,
	}).Info("Categorization complete")

	return stats
}

// CategorizeTransactions is a convenience function for one-shot use: it
// builds an engine over the rules and categorizes the whole list.
func CategorizeTransactions(transactions []*models.Transaction, rules []*models.Rule, accountType AccountTypeLookup, force bool) *models.CategorizationStats {
	engine := NewEngine(rules, accountType)
	return engine.CategorizeAll(transactions, force)
}
