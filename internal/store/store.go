// Package store provides loading and saving of application data: YAML files
// for rules, categories and accounts, and one JSON file per fiscal year for
// transactions. The pipeline core itself only ever exchanges in-memory
// records; this package is the edge where they hit disk.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/config"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/models"
)

var log = config.Logger

// SetLogger allows setting a custom logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Store manages the on-disk data layout:
//
//	<dataDir>/rules.yaml
//	<dataDir>/categories.yaml
//	<dataDir>/accounts.yaml
//	<dataDir>/transactions_<year>.json
type Store struct {
	DataDir        string
	RulesFile      string
	CategoriesFile string
	AccountsFile   string

	accounts map[string]*models.Account // keyed by normalized IBAN
}

// NewStore creates a store rooted at the given data directory.
func NewStore(dataDir string) *Store {
	if dataDir == "" {
		dataDir = "data"
	}
	return &Store{
		DataDir:        dataDir,
		RulesFile:      "rules.yaml",
		CategoriesFile: "categories.yaml",
		AccountsFile:   "accounts.yaml",
	}
}

// resolveFile gets the full path to a data file, checking the data directory
// first and then a config/ subdirectory for backward compatibility.
func (s *Store) resolveFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}

	locations := []string{
		filepath.Join(s.DataDir, filename),
		filepath.Join("config", filename),
		filename,
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	return "", os.ErrNotExist
}

// rulesDocument is the on-disk shape of the rules file.
type rulesDocument struct {
	Rules []*models.Rule `yaml:"rules"`
}

// LoadRules loads and compiles the rule set. A missing file yields an empty
// rule set, not an error; a rule that fails to compile is dropped with a
// warning so one bad edit does not block every import.
func (s *Store) LoadRules() ([]*models.Rule, error) {
	filePath, err := s.resolveFile(s.RulesFile)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("Rules file not found: %s", s.RulesFile)
			return nil, nil
		}
		return nil, fmt.Errorf("error resolving rules file: %w", err)
	}

	data, err := os.ReadFile(filePath) // #nosec G304 -- resolved data file
	if err != nil {
		return nil, fmt.Errorf("error reading rules file: %w", err)
	}

	var doc rulesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing rules file: %w", err)
	}

	var rules []*models.Rule
	for _, rule := range doc.Rules {
		if err := rule.Compile(); err != nil {
			log.WithError(err).WithField("rule", rule.ID).Warn("Dropping invalid rule")
			continue
		}
		rules = append(rules, rule)
	}

	log.Debugf("Loaded %d rules from %s", len(rules), filePath)
	return rules, nil
}

// SaveRules writes the rule set back to the data directory.
func (s *Store) SaveRules(rules []*models.Rule) error {
	data, err := yaml.Marshal(rulesDocument{Rules: rules})
	if err != nil {
		return fmt.Errorf("error marshaling rules: %w", err)
	}

	return s.writeFile(s.RulesFile, data)
}

// AddRule appends a rule to the stored rule set.
func (s *Store) AddRule(rule *models.Rule) error {
	rules, err := s.LoadRules()
	if err != nil {
		return err
	}

	for _, existing := range rules {
		if existing.ID == rule.ID {
			return fmt.Errorf("rule id already exists: %s", rule.ID)
		}
	}

	rules = append(rules, rule)
	return s.SaveRules(rules)
}

// categoriesDocument is the on-disk shape of the categories file.
type categoriesDocument struct {
	Categories []models.Category `yaml:"categories"`
}

// LoadCategories loads the category catalog keyed by id.
func (s *Store) LoadCategories() (map[string]models.Category, error) {
	filePath, err := s.resolveFile(s.CategoriesFile)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("Categories file not found: %s", s.CategoriesFile)
			return map[string]models.Category{}, nil
		}
		return nil, fmt.Errorf("error resolving categories file: %w", err)
	}

	data, err := os.ReadFile(filePath) // #nosec G304 -- resolved data file
	if err != nil {
		return nil, fmt.Errorf("error reading categories file: %w", err)
	}

	var doc categoriesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing categories file: %w", err)
	}

	categories := make(map[string]models.Category, len(doc.Categories))
	for _, category := range doc.Categories {
		if err := category.Validate(); err != nil {
			log.WithError(err).WithField("category", category.ID).Warn("Dropping invalid category")
			continue
		}
		categories[category.ID] = category
	}

	return categories, nil
}

// ValidateCategory reports whether the category id exists in the catalog.
func (s *Store) ValidateCategory(categoryID string) bool {
	categories, err := s.LoadCategories()
	if err != nil {
		return false
	}
	_, ok := categories[categoryID]
	return ok
}

// accountsDocument is the on-disk shape of the accounts file.
type accountsDocument struct {
	Accounts []*models.Account `yaml:"accounts"`
}

// LoadAccounts loads the account configuration keyed by normalized IBAN. The
// result is cached for the lifetime of the store.
func (s *Store) LoadAccounts() (map[string]*models.Account, error) {
	if s.accounts != nil {
		return s.accounts, nil
	}

	filePath, err := s.resolveFile(s.AccountsFile)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("Accounts file not found: %s", s.AccountsFile)
			s.accounts = map[string]*models.Account{}
			return s.accounts, nil
		}
		return nil, fmt.Errorf("error resolving accounts file: %w", err)
	}

	data, err := os.ReadFile(filePath) // #nosec G304 -- resolved data file
	if err != nil {
		return nil, fmt.Errorf("error reading accounts file: %w", err)
	}

	var doc accountsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing accounts file: %w", err)
	}

	accounts := make(map[string]*models.Account, len(doc.Accounts))
	for _, account := range doc.Accounts {
		if err := account.Validate(); err != nil {
			log.WithError(err).WithField("account", account.ID).Warn("Dropping invalid account")
			continue
		}
		accounts[account.NormalizedIBAN()] = account
	}

	s.accounts = accounts
	return accounts, nil
}

// GetAccountTypeByIBAN resolves an IBAN to its configured account type,
// defaulting to standard for unknown accounts. This is the lookup the
// categorization engine is constructed with.
func (s *Store) GetAccountTypeByIBAN(iban string) string {
	accounts, err := s.LoadAccounts()
	if err != nil {
		log.WithError(err).Warn("Failed to load accounts, assuming standard")
		return models.AccountTypeStandard
	}

	if account, ok := accounts[models.NormalizeIBAN(iban)]; ok {
		return account.AccountType
	}
	return models.AccountTypeStandard
}

// TransactionsFile returns the path of the transactions file for a fiscal
// year.
func (s *Store) TransactionsFile(fiscalYear int) string {
	return filepath.Join(s.DataDir, fmt.Sprintf("transactions_%d.json", fiscalYear))
}

// LoadTransactions loads the transactions for a fiscal year. A missing file
// yields an empty list.
func (s *Store) LoadTransactions(fiscalYear int) ([]*models.Transaction, error) {
	filePath := s.TransactionsFile(fiscalYear)

	data, err := os.ReadFile(filePath) // #nosec G304 -- data-dir file
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading transactions file: %w", err)
	}

	var transactions []*models.Transaction
	if err := json.Unmarshal(data, &transactions); err != nil {
		return nil, fmt.Errorf("error parsing transactions file: %w", err)
	}

	return transactions, nil
}

// SaveTransactions writes the transactions for a fiscal year, sorted by
// booking date then id so repeated saves are stable.
func (s *Store) SaveTransactions(fiscalYear int, transactions []*models.Transaction) error {
	sorted := make([]*models.Transaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].BookingDate.Equal(sorted[j].BookingDate) {
			return sorted[i].BookingDate.Before(sorted[j].BookingDate)
		}
		return sorted[i].ID < sorted[j].ID
	})

	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling transactions: %w", err)
	}

	if err := os.MkdirAll(s.DataDir, 0750); err != nil {
		return fmt.Errorf("error creating data directory: %w", err)
	}

	filePath := s.TransactionsFile(fiscalYear)
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("error writing transactions file: %w", err)
	}

	log.Debugf("Saved %d transactions to %s", len(sorted), filePath)
	return nil
}

// MergeTransactions merges newly imported transactions into an existing list
// by id; existing entries win unless force is set.
func MergeTransactions(existing, imported []*models.Transaction, force bool) []*models.Transaction {
	byID := make(map[string]int, len(existing))
	merged := make([]*models.Transaction, len(existing))
	copy(merged, existing)
	for i, tx := range merged {
		byID[tx.ID] = i
	}

	for _, tx := range imported {
		if i, ok := byID[tx.ID]; ok {
			if force {
				merged[i] = tx
			}
			continue
		}
		byID[tx.ID] = len(merged)
		merged = append(merged, tx)
	}

	return merged
}

// ExistingIDs gathers the ids of all persisted transactions across every
// fiscal year, for duplicate detection during import.
func (s *Store) ExistingIDs() (map[string]bool, error) {
	ids := make(map[string]bool)

	pattern := filepath.Join(s.DataDir, "transactions_*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("error listing transaction files: %w", err)
	}

	for _, filePath := range files {
		data, err := os.ReadFile(filePath) // #nosec G304 -- data-dir file
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", filePath, err)
		}

		var transactions []*models.Transaction
		if err := json.Unmarshal(data, &transactions); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", filePath, err)
		}

		for _, tx := range transactions {
			ids[tx.ID] = true
		}
	}

	return ids, nil
}

// LoadAssets loads the asset register.
func (s *Store) LoadAssets() ([]*models.Asset, error) {
	filePath := filepath.Join(s.DataDir, "assets.json")

	data, err := os.ReadFile(filePath) // #nosec G304 -- data-dir file
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading assets file: %w", err)
	}

	var assets []*models.Asset
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, fmt.Errorf("error parsing assets file: %w", err)
	}

	return assets, nil
}

// SaveAssets writes the asset register.
func (s *Store) SaveAssets(assets []*models.Asset) error {
	data, err := json.MarshalIndent(assets, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling assets: %w", err)
	}

	if err := os.MkdirAll(s.DataDir, 0750); err != nil {
		return fmt.Errorf("error creating data directory: %w", err)
	}

	return os.WriteFile(filepath.Join(s.DataDir, "assets.json"), data, 0600)
}

// writeFile writes a data file inside the data directory.
func (s *Store) writeFile(filename string, data []byte) error {
	if err := os.MkdirAll(s.DataDir, 0750); err != nil {
		return fmt.Errorf("error creating data directory: %w", err)
	}

	filePath := filepath.Join(s.DataDir, filename)
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("error writing %s: %w", filePath, err)
	}

	return nil
}
