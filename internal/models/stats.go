package models

// CategorizationStats summarizes one categorization run over a transaction
// list: how many transactions were categorized, how many remain without a
// category, how many were skipped as excluded, and how often each rule fired.
type CategorizationStats struct {
	Categorized   int            `json:"categorized"`
	Uncategorized int            `json:"uncategorized"`
	Skipped       int            `json:"skipped"`
	RulesApplied  map[string]int `json:"rules_applied"`
	Maatschap     int            `json:"maatschap_transactions"`
	Standard      int            `json:"standard_transactions"`
}

// NewCategorizationStats creates an empty stats record.
func NewCategorizationStats() *CategorizationStats {
	return &CategorizationStats{
		RulesApplied: make(map[string]int),
	}
}
