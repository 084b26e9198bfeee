package models

import (
	"regexp"
	"strings"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/parsererror"
)

// PatternKind identifies how a rule pattern is matched against a field value.
type PatternKind string

// Supported pattern kinds
const (
	PatternExact    PatternKind = "exact"
	PatternPrefix   PatternKind = "prefix"
	PatternContains PatternKind = "contains"
	PatternRegex    PatternKind = "regex"
)

// MatchField identifies which transaction field a rule matches against.
// Unknown fields are a construction-time error, not a silent non-match.
type MatchField string

// Supported match fields
const (
	FieldCounterpartyName    MatchField = "counterparty_name"
	FieldDescription         MatchField = "description"
	FieldCounterpartyAccount MatchField = "counterparty_account"
)

// Rule sources
const (
	RuleSourceExtracted = "extracted"
	RuleSourceManual    = "manual"
)

// Rule is a single pattern-match specification used by the categorization
// engine. Rules are created by manual entry or by the rule extractor and are
// never mutated afterwards except for priority and enabled edits.
type Rule struct {
	ID             string      `yaml:"id"`
	Pattern        string      `yaml:"pattern"`
	PatternKind    PatternKind `yaml:"pattern_kind"`
	MatchField     MatchField  `yaml:"match_field"`
	TargetCategory string      `yaml:"target_category"`
	Priority       int         `yaml:"priority"`
	Enabled        bool        `yaml:"enabled"`
	IsTherapeutic  *bool       `yaml:"is_therapeutic,omitempty"`
	Source         string      `yaml:"source"`
	Notes          string      `yaml:"notes,omitempty"`

	// Compiled matcher, cached once at construction for the regex kind only.
	compiled *regexp.Regexp
}

// NewRule constructs a validated Rule. A regex pattern must compile here;
// invalid patterns are rejected at construction, not at match time.
func NewRule(id, pattern string, kind PatternKind, field MatchField, targetCategory string, priority int) (*Rule, error) {
	r := &Rule{
		ID:             id,
		Pattern:        pattern,
		PatternKind:    kind,
		MatchField:     field,
		TargetCategory: targetCategory,
		Priority:       priority,
		Enabled:        true,
		Source:         RuleSourceManual,
	}

	if err := r.Compile(); err != nil {
		return nil, err
	}

	return r, nil
}

// Compile validates the rule and caches the compiled regex matcher. It must
// be called once after loading rules from storage.
func (r *Rule) Compile() error {
	switch r.PatternKind {
	case PatternExact, PatternPrefix, PatternContains:
	case PatternRegex:
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return parsererror.NewValidationError("rule", "regex pattern does not compile: "+r.Pattern)
		}
		r.compiled = re
	default:
		return parsererror.NewValidationError("rule", "unknown pattern kind: "+string(r.PatternKind))
	}

	switch r.MatchField {
	case FieldCounterpartyName, FieldDescription, FieldCounterpartyAccount:
	default:
		return parsererror.NewValidationError("rule", "unknown match field: "+string(r.MatchField))
	}

	if r.Source != RuleSourceExtracted && r.Source != RuleSourceManual {
		return parsererror.NewValidationError("rule", "unknown source: "+r.Source)
	}

	if r.Pattern == "" {
		return parsererror.NewValidationError("rule", "pattern is required")
	}

	return nil
}

// Matches reports whether the rule pattern matches the given field value.
// Matching is case-insensitive for every pattern kind. An empty value never
// matches.
func (r *Rule) Matches(value string) bool {
	if value == "" {
		return false
	}

	valueLower := strings.ToLower(value)
	patternLower := strings.ToLower(r.Pattern)

	switch r.PatternKind {
	case PatternExact:
		return valueLower == patternLower
	case PatternPrefix:
		return strings.HasPrefix(valueLower, patternLower)
	case PatternContains:
		return strings.Contains(valueLower, patternLower)
	case PatternRegex:
		if r.compiled == nil {
			// Not compiled means construction was bypassed; refuse to match.
			return false
		}
		return r.compiled.MatchString(value)
	}

	return false
}

// FieldValue returns the transaction field this rule matches against.
func (r *Rule) FieldValue(tx *Transaction) string {
	switch r.MatchField {
	case FieldCounterpartyName:
		return tx.CounterpartyName
	case FieldDescription:
		return tx.Description
	case FieldCounterpartyAccount:
		return tx.CounterpartyAccount
	}
	return ""
}
