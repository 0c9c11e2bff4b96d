package model

// ValidationVerdict is the guardrail outcome for one entity.
type ValidationVerdict struct {
	Passed      bool     `json:"passed"`
	FailedRules []string `json:"failed_rules,omitempty"`
}

// ValidationStats aggregates verdicts over a batch.
type ValidationStats struct {
	Total       int            `json:"total"`
	Passed      int            `json:"passed"`
	Filtered    int            `json:"filtered"`
	RulesFailed map[string]int `json:"rules_failed"`
}

// CompanyBatchResult is returned to callers of a company batch.
type CompanyBatchResult struct {
	RunID    string          `json:"run_id,omitempty"`
	Entities []Company       `json:"entities"`
	Stats    ValidationStats `json:"stats"`
	Errors   []string        `json:"errors"`
}

// LeadBatchResult is returned to callers of a lead batch.
type LeadBatchResult struct {
	RunID    string          `json:"run_id,omitempty"`
	Entities []Lead          `json:"entities"`
	Stats    ValidationStats `json:"stats"`
	Errors   []string        `json:"errors"`
}
