// Package guardrail filters entities through named acceptance rules. An
// entity survives only if every rule passes.
package guardrail

import (
	"github.com/sells-group/enrich-cli/internal/model"
)

// Rule is a named pure predicate over an entity.
type Rule[T any] struct {
	Name  string
	Check func(T) bool
}

// Validator holds an ordered rule set.
type Validator[T any] struct {
	rules []Rule[T]
}

// New creates a validator with the given rules in order.
func New[T any](rules ...Rule[T]) *Validator[T] {
	return &Validator[T]{rules: append([]Rule[T](nil), rules...)}
}

// Add appends a rule. Rules run in insertion order.
func (v *Validator[T]) Add(rules ...Rule[T]) {
	v.rules = append(v.rules, rules...)
}

// Rules returns the rule names in order.
func (v *Validator[T]) Rules() []string {
	names := make([]string, len(v.rules))
	for i, r := range v.rules {
		names[i] = r.Name
	}
	return names
}

// Check evaluates every rule against item and lists the failures.
func (v *Validator[T]) Check(item T) model.ValidationVerdict {
	verdict := model.ValidationVerdict{Passed: true}
	for _, r := range v.rules {
		if !r.Check(item) {
			verdict.Passed = false
			verdict.FailedRules = append(verdict.FailedRules, r.Name)
		}
	}
	return verdict
}

// Validate returns the items that pass every rule, in input order, and the
// aggregate stats.
func (v *Validator[T]) Validate(items []T) ([]T, model.ValidationStats) {
	stats := model.ValidationStats{Total: len(items), RulesFailed: make(map[string]int)}
	passed := make([]T, 0, len(items))
	for _, item := range items {
		verdict := v.Check(item)
		if verdict.Passed {
			passed = append(passed, item)
			stats.Passed++
			continue
		}
		stats.Filtered++
		for _, name := range verdict.FailedRules {
			stats.RulesFailed[name]++
		}
	}
	return passed, stats
}
