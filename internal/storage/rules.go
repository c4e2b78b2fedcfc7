package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/petgully/tally/internal/model"
)

// GetActiveRules retrieves all active rules ordered by ascending priority,
// ties broken by insertion order. Rules whose keyword storage cannot be
// parsed come back with an empty keyword list; the engine skips them with a
// warning instead of failing the whole load.
func (s *SQLiteStorage) GetActiveRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getActiveRulesTx(ctx, s.db)
}

func getActiveRulesTx(ctx context.Context, q queryable) ([]model.Rule, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, priority, keywords, not_keywords, main_category, sub_category,
			frequency, confidence, use_count, is_active, created_by, created_at, updated_at
		FROM rules
		WHERE is_active = 1
		ORDER BY priority ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ruleList []model.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		ruleList = append(ruleList, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return ruleList, nil
}

func scanRule(rows *sql.Rows) (model.Rule, error) {
	var rule model.Rule
	var keywords string
	var notKeywords sql.NullString
	var createdBy sql.NullString

	err := rows.Scan(
		&rule.ID, &rule.Name, &rule.Priority, &keywords, &notKeywords,
		&rule.MainCategory, &rule.SubCategory, &rule.Frequency, &rule.Confidence,
		&rule.UseCount, &rule.IsActive, &createdBy, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return model.Rule{}, fmt.Errorf("failed to scan rule: %w", err)
	}

	if err := json.Unmarshal([]byte(keywords), &rule.Any); err != nil {
		// Malformed keyword storage must not abort classification; the rule
		// simply never matches.
		slog.Warn("rule has unparsable keyword storage",
			"rule", rule.Name, "id", rule.ID, "error", err)
		rule.Any = nil
	}
	if notKeywords.Valid && notKeywords.String != "" {
		if err := json.Unmarshal([]byte(notKeywords.String), &rule.Not); err != nil {
			slog.Warn("rule has unparsable not-keyword storage",
				"rule", rule.Name, "id", rule.ID, "error", err)
			rule.Not = nil
		}
	}
	if createdBy.Valid {
		rule.CreatedBy = model.RuleSource(createdBy.String)
	}

	return rule, nil
}

// GetSalaryRules retrieves salary-name rules in stable insertion order.
func (s *SQLiteStorage) GetSalaryRules(ctx context.Context) ([]model.SalaryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getSalaryRulesTx(ctx, s.db)
}

func getSalaryRulesTx(ctx context.Context, q queryable) ([]model.SalaryRule, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT employee_name, sub_category
		FROM salary_rules
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get salary rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var salaryRules []model.SalaryRule
	for rows.Next() {
		var sr model.SalaryRule
		if err := rows.Scan(&sr.EmployeeName, &sr.SubCategory); err != nil {
			return nil, fmt.Errorf("failed to scan salary rule: %w", err)
		}
		salaryRules = append(salaryRules, sr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating salary rules: %w", err)
	}

	return salaryRules, nil
}

// InsertRule adds a rule to the set.
func (s *SQLiteStorage) InsertRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return insertRuleTx(ctx, s.db, rule)
}

func insertRuleTx(ctx context.Context, q queryable, rule *model.Rule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	keywords, err := json.Marshal(rule.Any)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}
	var notKeywords any
	if len(rule.Not) > 0 {
		raw, err := json.Marshal(rule.Not)
		if err != nil {
			return fmt.Errorf("failed to marshal not-keywords: %w", err)
		}
		notKeywords = string(raw)
	}

	createdBy := rule.CreatedBy
	if createdBy == "" {
		createdBy = model.SourceUser
	}
	if rule.Priority == 0 {
		rule.Priority = model.DefaultUserPriority
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO rules (name, priority, keywords, not_keywords, main_category, sub_category,
			frequency, confidence, is_active, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rule.Name, rule.Priority, string(keywords), notKeywords,
		rule.MainCategory, rule.SubCategory, rule.Frequency, rule.Confidence,
		rule.IsActive, string(createdBy))
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}
	rule.ID = int(id)

	return nil
}

// InsertSalaryRule adds a salary-name rule.
func (s *SQLiteStorage) InsertSalaryRule(ctx context.Context, rule *model.SalaryRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return insertSalaryRuleTx(ctx, s.db, rule)
}

func insertSalaryRuleTx(ctx context.Context, q queryable, rule *model.SalaryRule) error {
	if err := validateSalaryRule(rule); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO salary_rules (employee_name, sub_category)
		VALUES (?, ?)
		ON CONFLICT(employee_name) DO UPDATE SET sub_category = excluded.sub_category
	`, rule.EmployeeName, rule.SubCategory)
	if err != nil {
		return fmt.Errorf("failed to insert salary rule: %w", err)
	}

	return nil
}

// UpdateRuleCategory overwrites a rule's target categories and records the
// provenance of the change.
func (s *SQLiteStorage) UpdateRuleCategory(ctx context.Context, id int, main, sub string, source model.RuleSource) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return updateRuleCategoryTx(ctx, s.db, id, main, sub, source)
}

func updateRuleCategoryTx(ctx context.Context, q queryable, id int, main, sub string, source model.RuleSource) error {
	if err := validateString(main, "main_category"); err != nil {
		return err
	}
	if err := validateString(sub, "sub_category"); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `
		UPDATE rules
		SET main_category = ?, sub_category = ?, created_by = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, main, sub, string(source), id)
	if err != nil {
		return fmt.Errorf("failed to update rule category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}

	return nil
}

// SetRuleActive toggles a rule in or out of the matching set.
func (s *SQLiteStorage) SetRuleActive(ctx context.Context, id int, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE rules SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, active, id)
	if err != nil {
		return fmt.Errorf("failed to set rule active state: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}

	return nil
}

// IncrementRuleUseCount bumps the use counter after a rule verdict.
func (s *SQLiteStorage) IncrementRuleUseCount(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE rules SET use_count = use_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment rule use count: %w", err)
	}
	return nil
}

// ReplaceRules swaps the entire rule set atomically.
func (s *SQLiteStorage) ReplaceRules(ctx context.Context, ruleList []model.Rule, salary []model.SalaryRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rules`); err != nil {
		return fmt.Errorf("failed to clear rules: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM salary_rules`); err != nil {
		return fmt.Errorf("failed to clear salary rules: %w", err)
	}

	for i := range ruleList {
		if err := insertRuleTx(ctx, tx, &ruleList[i]); err != nil {
			return err
		}
	}
	for i := range salary {
		if err := insertSalaryRuleTx(ctx, tx, &salary[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RuleStats aggregates rule counts by provenance.
type RuleStats struct {
	ByCreator map[string]int
	TopUsed   []model.Rule
	Total     int
	Active    int
}

// GetRuleStats reports totals, active counts, a per-provenance breakdown,
// and the most-used rules.
func (s *SQLiteStorage) GetRuleStats(ctx context.Context, topN int) (*RuleStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = 10
	}

	stats := &RuleStats{ByCreator: make(map[string]int)}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_active), 0) FROM rules`).Scan(&stats.Total, &stats.Active)
	if err != nil {
		return nil, fmt.Errorf("failed to count rules: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(created_by, 'user'), COUNT(*)
		FROM rules
		GROUP BY created_by
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get rule creator breakdown: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var creator string
		var count int
		if err := rows.Scan(&creator, &count); err != nil {
			return nil, fmt.Errorf("failed to scan creator row: %w", err)
		}
		stats.ByCreator[creator] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating creator rows: %w", err)
	}

	topRows, err := s.db.QueryContext(ctx, `
		SELECT id, name, priority, keywords, not_keywords, main_category, sub_category,
			frequency, confidence, use_count, is_active, created_by, created_at, updated_at
		FROM rules
		WHERE use_count > 0
		ORDER BY use_count DESC, id ASC
		LIMIT ?
	`, topN)
	if err != nil {
		return nil, fmt.Errorf("failed to get top-used rules: %w", err)
	}
	defer func() { _ = topRows.Close() }()

	for topRows.Next() {
		rule, err := scanRule(topRows)
		if err != nil {
			return nil, err
		}
		stats.TopUsed = append(stats.TopUsed, rule)
	}
	if err := topRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top-used rules: %w", err)
	}

	return stats, nil
}

// Transaction implementations for the merger's RuleTx.

func (t *ruleTx) GetActiveRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getActiveRulesTx(ctx, t.tx)
}

func (t *ruleTx) GetSalaryRules(ctx context.Context) ([]model.SalaryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return getSalaryRulesTx(ctx, t.tx)
}

func (t *ruleTx) InsertRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return insertRuleTx(ctx, t.tx, rule)
}

func (t *ruleTx) InsertSalaryRule(ctx context.Context, rule *model.SalaryRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return insertSalaryRuleTx(ctx, t.tx, rule)
}

func (t *ruleTx) UpdateRuleCategory(ctx context.Context, id int, main, sub string, source model.RuleSource) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return updateRuleCategoryTx(ctx, t.tx, id, main, sub, source)
}
