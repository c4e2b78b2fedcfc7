package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petgully/tally/internal/model"
)

func snapshotOf(t *testing.T, ruleList []model.Rule, salary []model.SalaryRule) *Snapshot {
	t.Helper()
	return NewSnapshot(ruleList, salary)
}

func TestClassifyWithSnapshot_SalaryRules(t *testing.T) {
	salary := []model.SalaryRule{
		{EmployeeName: "KASIMALLA", SubCategory: "Back Office"},
		{EmployeeName: "SALAVATH", SubCategory: "Operations Team"},
		{EmployeeName: "MOHAMMED RAFI", SubCategory: "Drivers"},
	}

	tests := []struct {
		name      string
		narration string
		wantSub   string
		wantMatch bool
	}{
		{
			name:      "name with salary context token matches",
			narration: "50100440274478-TPT-SALARY-KASIMALLA",
			wantSub:   "Back Office",
			wantMatch: true,
		},
		{
			name:      "name without any context token does not match",
			narration: "UPI PAYMENT KASIMALLA GROCERY",
			wantMatch: false,
		},
		{
			name:      "context token without a known name does not match",
			narration: "NEFT DR SALARY TRANSFER UNKNOWN PERSON",
			wantMatch: false,
		},
		{
			name:      "imps context counts",
			narration: "IMPS SALAVATH 500123",
			wantSub:   "Operations Team",
			wantMatch: true,
		},
		{
			name:      "lower case narration still matches",
			narration: "tpt-salary-salavath",
			wantSub:   "Operations Team",
			wantMatch: true,
		},
		{
			name:      "multi-word name matches as a whole",
			narration: "NEFT DR MOHAMMED RAFI JUNE",
			wantSub:   "Drivers",
			wantMatch: true,
		},
		{
			name:      "partial token of a multi-word name does not match",
			narration: "50100541552099-TPT-EXPENSE-RAFI",
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := snapshotOf(t, nil, salary)
			verdict := ClassifyWithSnapshot(snapshot, tt.narration, nil)

			assert.Equal(t, tt.wantMatch, verdict.Matched)
			if tt.wantMatch {
				assert.Equal(t, model.SalaryMainCategory, verdict.MainCategory)
				assert.Equal(t, tt.wantSub, verdict.SubCategory)
			}
		})
	}
}

func TestClassifyWithSnapshot_FullNameSubstringRequired(t *testing.T) {
	salary := []model.SalaryRule{{EmployeeName: "SALAVATH SRINU", SubCategory: "Operations Team"}}
	snapshot := snapshotOf(t, nil, salary)

	verdict := ClassifyWithSnapshot(snapshot, "50100541552099-TPT-EXPENSE-SALAVATH", nil)
	assert.False(t, verdict.Matched)

	verdict = ClassifyWithSnapshot(snapshot, "NEFT DR SALAVATH SRINU SALARY JUNE", nil)
	require.True(t, verdict.Matched)
	assert.Equal(t, "Operations Team", verdict.SubCategory)
}

func TestClassifyWithSnapshot_KeywordPrecedence(t *testing.T) {
	ruleList := []model.Rule{
		{
			ID: 1, Name: "Marketplace", Priority: 50, IsActive: true,
			Any: []string{"AMAZON"}, MainCategory: "Shopping", SubCategory: "Online",
		},
		{
			ID: 2, Name: "AWS", Priority: 10, IsActive: true,
			Any: []string{"AMAZON"}, Not: []string{"PRIME"},
			MainCategory: "Software & Subscriptions", SubCategory: "Cloud",
		},
	}

	tests := []struct {
		name      string
		narration string
		wantRule  string
		wantMain  string
		wantMatch bool
	}{
		{
			name:      "lowest priority wins",
			narration: "AMAZON WEB SERVICES 123",
			wantRule:  "AWS",
			wantMain:  "Software & Subscriptions",
			wantMatch: true,
		},
		{
			name:      "not-token pushes match to the next rule",
			narration: "AMAZON PRIME MEMBERSHIP",
			wantRule:  "Marketplace",
			wantMain:  "Shopping",
			wantMatch: true,
		},
		{
			name:      "no keyword anywhere",
			narration: "NEFT DR RENT APRIL",
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := snapshotOf(t, ruleList, nil)
			verdict := ClassifyWithSnapshot(snapshot, tt.narration, nil)

			assert.Equal(t, tt.wantMatch, verdict.Matched)
			if tt.wantMatch {
				assert.Equal(t, tt.wantRule, verdict.RuleName)
				assert.Equal(t, tt.wantMain, verdict.MainCategory)
			}
		})
	}
}

func TestClassifyWithSnapshot_StableTieBreak(t *testing.T) {
	ruleList := []model.Rule{
		{ID: 1, Name: "First", Priority: 20, IsActive: true, Any: []string{"FOO"}, MainCategory: "A", SubCategory: "a"},
		{ID: 2, Name: "Second", Priority: 20, IsActive: true, Any: []string{"FOO"}, MainCategory: "B", SubCategory: "b"},
	}

	snapshot := snapshotOf(t, ruleList, nil)
	verdict := ClassifyWithSnapshot(snapshot, "FOO BAR", nil)

	require.True(t, verdict.Matched)
	assert.Equal(t, "First", verdict.RuleName)
}

func TestClassifyWithSnapshot_SkipsInactiveAndKeywordless(t *testing.T) {
	ruleList := []model.Rule{
		{ID: 1, Name: "Disabled", Priority: 1, IsActive: false, Any: []string{"FOO"}, MainCategory: "A", SubCategory: "a"},
		{ID: 2, Name: "Broken", Priority: 2, IsActive: true, Any: nil, MainCategory: "B", SubCategory: "b"},
		{ID: 3, Name: "Good", Priority: 3, IsActive: true, Any: []string{"FOO"}, MainCategory: "C", SubCategory: "c"},
	}

	snapshot := snapshotOf(t, ruleList, nil)
	verdict := ClassifyWithSnapshot(snapshot, "FOO", nil)

	require.True(t, verdict.Matched)
	assert.Equal(t, "Good", verdict.RuleName)
	assert.Equal(t, 3, verdict.RuleID)
}

func TestClassifyWithSnapshot_SalaryBeatsKeyword(t *testing.T) {
	salary := []model.SalaryRule{{EmployeeName: "KASIMALLA", SubCategory: "Back Office"}}
	ruleList := []model.Rule{
		{ID: 1, Name: "Salary keyword", Priority: 1, IsActive: true, Any: []string{"SALARY"}, MainCategory: "Payroll", SubCategory: "Bulk"},
	}

	snapshot := snapshotOf(t, ruleList, salary)
	verdict := ClassifyWithSnapshot(snapshot, "TPT-SALARY-KASIMALLA", nil)

	require.True(t, verdict.Matched)
	assert.Equal(t, model.SalaryMainCategory, verdict.MainCategory)
	assert.Equal(t, "Back Office", verdict.SubCategory)
}

type stubStore struct {
	rules  []model.Rule
	salary []model.SalaryRule
	err    error
	loads  int
}

func (s *stubStore) GetActiveRules(_ context.Context) ([]model.Rule, error) {
	s.loads++
	return s.rules, s.err
}

func (s *stubStore) GetSalaryRules(_ context.Context) ([]model.SalaryRule, error) {
	return s.salary, nil
}

func (s *stubStore) InsertRule(_ context.Context, _ *model.Rule) error { return nil }

func (s *stubStore) UpdateRuleCategory(_ context.Context, _ int, _, _ string, _ model.RuleSource) error {
	return nil
}

func (s *stubStore) ReplaceRules(_ context.Context, _ []model.Rule, _ []model.SalaryRule) error {
	return nil
}

func TestEngine_NilNarration(t *testing.T) {
	cache := NewCache(&stubStore{}, 0, nil)
	engine := NewEngine(cache, nil)

	verdict := engine.Classify(context.Background(), nil)
	assert.False(t, verdict.Matched)
}

func TestEngine_StoreErrorDegradesToNoMatch(t *testing.T) {
	cache := NewCache(&stubStore{err: assert.AnError}, 0, nil)
	engine := NewEngine(cache, nil)

	narration := "AMAZON ORDER"
	verdict := engine.Classify(context.Background(), &narration)
	assert.False(t, verdict.Matched)
}
