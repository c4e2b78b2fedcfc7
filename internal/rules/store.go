// Package rules applies the deterministic rule set against transaction
// narrations and manages the cached rule-set snapshot.
package rules

import (
	"context"
	"sort"

	"github.com/petgully/tally/internal/model"
)

// Store is the backing persistence for the rule set. Implementations must
// make each mutation atomic with respect to snapshot loads.
type Store interface {
	// GetActiveRules returns active keyword rules ordered by ascending
	// priority, ties broken by insertion order.
	GetActiveRules(ctx context.Context) ([]model.Rule, error)
	// GetSalaryRules returns salary-name rules in stable insertion order.
	GetSalaryRules(ctx context.Context) ([]model.SalaryRule, error)
	// InsertRule adds a rule to the set.
	InsertRule(ctx context.Context, rule *model.Rule) error
	// UpdateRuleCategory overwrites a rule's target categories and marks its
	// provenance.
	UpdateRuleCategory(ctx context.Context, id int, main, sub string, source model.RuleSource) error
	// ReplaceRules swaps the entire rule set atomically.
	ReplaceRules(ctx context.Context, rules []model.Rule, salary []model.SalaryRule) error
}

// Snapshot is an immutable view of the active rule set. Engines evaluate
// against a snapshot so a concurrent reload can never expose a half-updated
// rule list.
type Snapshot struct {
	Rules       []model.Rule
	SalaryRules []model.SalaryRule
}

// NewSnapshot sorts the given rules into evaluation order and freezes them.
// The sort is stable so equal priorities keep their insertion order.
func NewSnapshot(rules []model.Rule, salary []model.SalaryRule) *Snapshot {
	sorted := make([]model.Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	return &Snapshot{
		Rules:       sorted,
		SalaryRules: salary,
	}
}

// Keywords returns the set of every keyword and employee name present in the
// snapshot, used by the learner to filter out already-known tokens.
func (s *Snapshot) Keywords() map[string]struct{} {
	known := make(map[string]struct{})
	for _, r := range s.Rules {
		for _, kw := range r.Any {
			known[kw] = struct{}{}
		}
	}
	for _, sr := range s.SalaryRules {
		known[sr.EmployeeName] = struct{}{}
	}
	return known
}
