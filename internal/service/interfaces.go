// Package service defines the contracts between the command layer and the
// application services.
package service

import (
	"context"
	"time"

	"github.com/petgully/tally/internal/learn"
	"github.com/petgully/tally/internal/model"
	"github.com/petgully/tally/internal/storage"
)

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Rule operations
	GetActiveRules(ctx context.Context) ([]model.Rule, error)
	GetSalaryRules(ctx context.Context) ([]model.SalaryRule, error)
	InsertRule(ctx context.Context, rule *model.Rule) error
	InsertSalaryRule(ctx context.Context, rule *model.SalaryRule) error
	UpdateRuleCategory(ctx context.Context, id int, main, sub string, source model.RuleSource) error
	SetRuleActive(ctx context.Context, id int, active bool) error
	IncrementRuleUseCount(ctx context.Context, id int) error
	ReplaceRules(ctx context.Context, ruleList []model.Rule, salary []model.SalaryRule) error
	GetRuleStats(ctx context.Context, topN int) (*storage.RuleStats, error)
	BeginRuleTx(ctx context.Context) (learn.RuleTx, error)

	// Transaction operations
	SaveTransactions(ctx context.Context, txns []model.Transaction) (int, error)
	SaveClassification(ctx context.Context, c *model.Classification) error
	MarkReviewed(ctx context.Context, hash, mainCategory, subCategory string) error
	GetLabeledTransactions(ctx context.Context, filter storage.LabeledTransactionFilter) ([]model.LabeledTransaction, error)
	GetUnclassifiedTransactions(ctx context.Context, limit int) ([]model.Transaction, error)
	GetClassifiedTransactions(ctx context.Context, from, to time.Time) ([]model.Classification, error)

	// Database management
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
	Close() error
}

// ReportWriter publishes categorized transactions to an external surface.
type ReportWriter interface {
	Write(ctx context.Context, classifications []model.Classification) error
}
