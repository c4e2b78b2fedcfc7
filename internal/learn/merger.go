package learn

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/petgully/tally/internal/common"
	"github.com/petgully/tally/internal/model"
)

// manualRulePriority is assigned to rules derived from manual corrections.
const manualRulePriority = 25

// RuleTx is a transactional view of the rule store. Either Commit applies
// every staged change or Rollback leaves the prior rule set authoritative.
type RuleTx interface {
	GetActiveRules(ctx context.Context) ([]model.Rule, error)
	GetSalaryRules(ctx context.Context) ([]model.SalaryRule, error)
	InsertRule(ctx context.Context, rule *model.Rule) error
	InsertSalaryRule(ctx context.Context, rule *model.SalaryRule) error
	UpdateRuleCategory(ctx context.Context, id int, main, sub string, source model.RuleSource) error
	Commit() error
	Rollback() error
}

// RuleWriter opens rule-store transactions.
type RuleWriter interface {
	BeginRuleTx(ctx context.Context) (RuleTx, error)
}

// Merger folds candidate rules into an existing rule set, preferring updates
// over inserts when a candidate conflicts with what is already there.
type Merger struct {
	logger *slog.Logger
}

// NewMerger creates a rule merger.
func NewMerger(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{logger: logger}
}

// Plan decides, per candidate, whether it updates conflicting rules, inserts
// a new rule, or is rejected as a duplicate. Plan is pure; Commit applies a
// plan to the store.
//
// A conflict is an active rule sharing at least one of the candidate's
// keywords while targeting different categories. A human correction should
// win over a stale rule, so every conflicting rule is rewritten to the
// candidate's categories and no new rule is inserted for that candidate.
func (m *Merger) Plan(candidates []model.CandidateRule, current []model.Rule, salary []model.SalaryRule) model.MergeResult {
	var result model.MergeResult

	// Updates staged by earlier candidates are visible to later ones.
	working := make([]model.Rule, len(current))
	copy(working, current)

	salaryNames := make(map[string]struct{}, len(salary))
	for _, sr := range salary {
		salaryNames[sr.EmployeeName] = struct{}{}
	}

	for _, cand := range candidates {
		if cand.IsSalary() {
			if _, exists := salaryNames[cand.EmployeeName]; exists {
				result.Rejected = append(result.Rejected, cand)
				continue
			}
			salaryNames[cand.EmployeeName] = struct{}{}
			result.Inserted = append(result.Inserted, salaryCandidateRule(cand))
			continue
		}

		conflicts := findConflicts(cand, working)
		if len(conflicts) > 0 {
			for _, idx := range conflicts {
				working[idx].MainCategory = cand.MainCategory
				working[idx].SubCategory = cand.SubCategory
				working[idx].CreatedBy = model.SourceManualUpdated
				result.Updated = append(result.Updated, working[idx])

				m.logger.Info("updating conflicting rule",
					"rule", working[idx].Name,
					"main", cand.MainCategory,
					"sub", cand.SubCategory)
			}
			continue
		}

		if isDuplicate(cand, working) {
			result.Rejected = append(result.Rejected, cand)
			continue
		}

		rule := candidateRule(cand)
		working = append(working, rule)
		result.Inserted = append(result.Inserted, rule)
	}

	return result
}

// Commit applies a merge plan inside a single store transaction. The merged
// rule set is re-read and validated before commit; any failure rolls the
// whole invocation back and the prior rule set stays authoritative.
func (m *Merger) Commit(ctx context.Context, store RuleWriter, result model.MergeResult) (err error) {
	tx, err := store.BeginRuleTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rule transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, rule := range result.Updated {
		if err = tx.UpdateRuleCategory(ctx, rule.ID, rule.MainCategory, rule.SubCategory, model.SourceManualUpdated); err != nil {
			return fmt.Errorf("failed to update rule %q: %w", rule.Name, err)
		}
	}

	for i := range result.Inserted {
		rule := &result.Inserted[i]
		if strings.HasPrefix(rule.Name, "Salary: ") {
			salaryRule := model.SalaryRule{
				EmployeeName: rule.Any[0],
				SubCategory:  rule.SubCategory,
			}
			if err = tx.InsertSalaryRule(ctx, &salaryRule); err != nil {
				return fmt.Errorf("failed to insert salary rule %q: %w", rule.Name, err)
			}
			continue
		}
		if err = tx.InsertRule(ctx, rule); err != nil {
			return fmt.Errorf("failed to insert rule %q: %w", rule.Name, err)
		}
	}

	merged, err := tx.GetActiveRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to re-read merged rule set: %w", err)
	}
	salary, err := tx.GetSalaryRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to re-read salary rules: %w", err)
	}
	if err = ValidateRuleSet(merged, salary); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMergeValidation, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merged rule set: %w", err)
	}
	return nil
}

// ValidateRuleSet checks the structural correctness of a full rule set:
// every rule needs a name, both categories, at least one keyword, and a name
// unique within the set; salary rules need an employee name.
func ValidateRuleSet(ruleList []model.Rule, salary []model.SalaryRule) error {
	names := make(map[string]struct{}, len(ruleList))
	for _, r := range ruleList {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("rule %d has an empty name", r.ID)
		}
		if r.MainCategory == "" || r.SubCategory == "" {
			return fmt.Errorf("rule %q is missing a category", r.Name)
		}
		if len(r.Any) == 0 {
			return fmt.Errorf("rule %q has no keywords", r.Name)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return fmt.Errorf("rule %q has confidence outside [0,1]", r.Name)
		}
		if _, dup := names[r.Name]; dup {
			return fmt.Errorf("duplicate rule name %q", r.Name)
		}
		names[r.Name] = struct{}{}
	}
	for _, sr := range salary {
		if strings.TrimSpace(sr.EmployeeName) == "" {
			return fmt.Errorf("salary rule for %q has an empty employee name", sr.SubCategory)
		}
		if sr.SubCategory == "" {
			return fmt.Errorf("salary rule for %q is missing its sub-category", sr.EmployeeName)
		}
	}
	return nil
}

// findConflicts returns indexes of active rules that share a keyword with
// the candidate but target different categories.
func findConflicts(cand model.CandidateRule, current []model.Rule) []int {
	candKeywords := make(map[string]struct{}, len(cand.Any))
	for _, kw := range cand.Any {
		candKeywords[kw] = struct{}{}
	}

	var conflicts []int
	for i, r := range current {
		if !r.IsActive {
			continue
		}
		if r.MainCategory == cand.MainCategory && r.SubCategory == cand.SubCategory {
			continue
		}
		for _, kw := range r.Any {
			if _, shared := candKeywords[kw]; shared {
				conflicts = append(conflicts, i)
				break
			}
		}
	}
	return conflicts
}

// isDuplicate reports whether an active rule already covers the candidate:
// same categories and it contains the candidate's primary keyword.
func isDuplicate(cand model.CandidateRule, current []model.Rule) bool {
	primary := cand.PrimaryKeyword()
	if primary == "" {
		return true
	}
	for _, r := range current {
		if !r.IsActive {
			continue
		}
		if r.MainCategory != cand.MainCategory || r.SubCategory != cand.SubCategory {
			continue
		}
		for _, kw := range r.Any {
			if kw == primary {
				return true
			}
		}
	}
	return false
}

// candidateRule builds the rule a keyword candidate would insert.
func candidateRule(cand model.CandidateRule) model.Rule {
	source := cand.Source
	if source == "" {
		source = model.SourceAutoLearned
	}
	return model.Rule{
		Name:         cand.Name,
		Priority:     cand.Priority,
		Any:          cand.Any,
		MainCategory: cand.MainCategory,
		SubCategory:  cand.SubCategory,
		Frequency:    cand.Frequency,
		Confidence:   cand.Confidence,
		CreatedBy:    source,
		IsActive:     true,
	}
}

// salaryCandidateRule represents a salary candidate in MergeResult form so
// callers can display inserts uniformly.
func salaryCandidateRule(cand model.CandidateRule) model.Rule {
	return model.Rule{
		Name:         fmt.Sprintf("Salary: %s", cand.EmployeeName),
		Priority:     manualRulePriority,
		Any:          []string{cand.EmployeeName},
		MainCategory: model.SalaryMainCategory,
		SubCategory:  cand.SubCategory,
		Frequency:    cand.Frequency,
		Confidence:   cand.Confidence,
		CreatedBy:    model.SourceManual,
		IsActive:     true,
	}
}
