// Package model defines the core data structures for the tally application.
package model

import (
	"time"
)

// RuleSource indicates how a rule came into the rule set.
type RuleSource string

const (
	// SourceUser indicates a rule authored directly by a user.
	SourceUser RuleSource = "user"
	// SourceAutoLearned indicates a rule produced by the pattern learner.
	SourceAutoLearned RuleSource = "auto-learned"
	// SourceManual indicates a rule derived from a manual correction.
	SourceManual RuleSource = "manual"
	// SourceManualUpdated indicates an existing rule overwritten by a
	// conflicting manual correction.
	SourceManualUpdated RuleSource = "manual-updated"
)

// DefaultUserPriority is assigned to rules authored without an explicit priority.
const DefaultUserPriority = 100

// Rule is a deterministic categorization unit. A rule matches a narration
// when any of its Any tokens appears as a substring of the upper-cased text
// and none of its Not tokens does.
type Rule struct {
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Name         string     `json:"name"`
	MainCategory string     `json:"main_category"`
	SubCategory  string     `json:"sub_category"`
	CreatedBy    RuleSource `json:"created_by"`
	Any          []string   `json:"any"`
	Not          []string   `json:"not,omitempty"`
	ID           int        `json:"id"`
	Priority     int        `json:"priority"`
	Frequency    int        `json:"frequency"`
	UseCount     int        `json:"use_count"`
	Confidence   float64    `json:"confidence"`
	IsActive     bool       `json:"is_active"`
}

// SalaryRule matches a literal employee name combined with a salary-context
// token. Salary rules are evaluated before every keyword rule regardless of
// priority.
type SalaryRule struct {
	EmployeeName string `json:"employee_name"`
	SubCategory  string `json:"sub_category"`
}

// SalaryMainCategory is the fixed main category for salary-rule verdicts.
const SalaryMainCategory = "Salaries & Wages"

// SalaryContextTokens are the narration fragments that, alongside an employee
// name, confirm a salary payment.
var SalaryContextTokens = []string{"SALARY", "EXPENSES", "NEFT DR", "IMPS", "TPT"}
