package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/petgully/tally/internal/model"
)

// SaveTransactions persists a batch, skipping any transaction whose hash is
// already present. Returns the number of newly inserted rows.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, txns []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i := range txns {
		if txns[i].Hash == "" {
			txns[i].Hash = txns[i].GenerateHash()
		}
	}
	if err := validateTransactions(txns); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions
			(hash, posted_at, description_raw, normalized_desc, vendor_text,
			 amount, balance_after, account, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for i := range txns {
		t := &txns[i]
		currency := t.Currency
		if currency == "" {
			currency = "INR"
		}

		result, err := stmt.ExecContext(ctx,
			t.Hash, t.Date, t.Description, t.Normalized, t.VendorText,
			t.Amount, t.Balance, t.Account, currency)
		if err != nil {
			return 0, fmt.Errorf("failed to insert transaction: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transactions: %w", err)
	}

	return inserted, nil
}

// SaveClassification records the resolved categories on the transaction row
// and appends an audit log entry.
func (s *SQLiteStorage) SaveClassification(ctx context.Context, c *model.Classification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("classification: %w", ErrNilParameter)
	}
	if err := validateString(c.Transaction.Hash, "transaction hash"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		UPDATE transactions
		SET main_category = ?, sub_category = ?, confidence = ?, source = ?
		WHERE hash = ?
	`, c.MainCategory, c.SubCategory, c.Confidence, string(c.MainSource), c.Transaction.Hash)
	if err != nil {
		return fmt.Errorf("failed to update transaction categories: %w", err)
	}

	var ruleName any
	if c.RuleName != "" {
		ruleName = c.RuleName
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO classification_log
			(transaction_hash, main_category, sub_category, rule_name, main_source, sub_source, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.Transaction.Hash, c.MainCategory, c.SubCategory, ruleName,
		string(c.MainSource), string(c.SubSource), c.Confidence)
	if err != nil {
		return fmt.Errorf("failed to append classification log: %w", err)
	}

	return tx.Commit()
}

// MarkReviewed stamps review time on a transaction, optionally overriding
// the categories with the reviewer's correction.
func (s *SQLiteStorage) MarkReviewed(ctx context.Context, hash, mainCategory, subCategory string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(hash, "hash"); err != nil {
		return err
	}

	var result sql.Result
	var err error
	if mainCategory != "" && subCategory != "" {
		result, err = s.db.ExecContext(ctx, `
			UPDATE transactions
			SET main_category = ?, sub_category = ?, confidence = 1.0,
				source = 'user', reviewed_at = CURRENT_TIMESTAMP
			WHERE hash = ?
		`, mainCategory, subCategory, hash)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE transactions SET reviewed_at = CURRENT_TIMESTAMP WHERE hash = ?
		`, hash)
	}
	if err != nil {
		return fmt.Errorf("failed to mark transaction reviewed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTxnNotFound
	}

	return nil
}

// LabeledTransactionFilter narrows the corpus the learner trains on.
type LabeledTransactionFilter struct {
	ReviewedOnly  bool
	MinConfidence float64
}

// GetLabeledTransactions retrieves corpus records that carry both category
// labels, newest first.
func (s *SQLiteStorage) GetLabeledTransactions(ctx context.Context, filter LabeledTransactionFilter) ([]model.LabeledTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT normalized_desc, vendor_text, main_category, sub_category, confidence, reviewed_at
		FROM transactions
		WHERE main_category IS NOT NULL AND main_category != ''
			AND sub_category IS NOT NULL AND sub_category != ''
			AND confidence >= ?
	`
	args := []any{filter.MinConfidence}
	if filter.ReviewedOnly {
		query += ` AND reviewed_at IS NOT NULL`
	}
	query += ` ORDER BY posted_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get labeled transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var labeled []model.LabeledTransaction
	for rows.Next() {
		var lt model.LabeledTransaction
		var vendorText sql.NullString
		var reviewedAt sql.NullTime
		err := rows.Scan(&lt.Normalized, &vendorText, &lt.MainCategory,
			&lt.SubCategory, &lt.Confidence, &reviewedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan labeled transaction: %w", err)
		}
		lt.VendorText = vendorText.String
		if reviewedAt.Valid {
			t := reviewedAt.Time
			lt.ReviewedAt = &t
		}
		labeled = append(labeled, lt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labeled transactions: %w", err)
	}

	return labeled, nil
}

// GetUnclassifiedTransactions retrieves transactions that have not yet been
// assigned a main category, oldest first so classification follows statement
// order.
func (s *SQLiteStorage) GetUnclassifiedTransactions(ctx context.Context, limit int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT hash, posted_at, description_raw, normalized_desc, vendor_text,
			amount, balance_after, account, currency
		FROM transactions
		WHERE main_category IS NULL OR main_category = ''
		ORDER BY posted_at ASC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get unclassified transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txns, err := scanTransactions(rows)
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// GetClassifiedTransactions retrieves categorized transactions in a date
// range, newest first. Zero time bounds mean unbounded.
func (s *SQLiteStorage) GetClassifiedTransactions(ctx context.Context, from, to time.Time) ([]model.Classification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT hash, posted_at, description_raw, normalized_desc, vendor_text,
			amount, balance_after, account, currency,
			main_category, sub_category, confidence, COALESCE(source, 'none')
		FROM transactions
		WHERE main_category IS NOT NULL AND main_category != ''
	`
	args := []any{}
	if !from.IsZero() {
		query += ` AND posted_at >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		query += ` AND posted_at <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY posted_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get classified transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var classified []model.Classification
	for rows.Next() {
		var c model.Classification
		var vendorText, mainCategory, subCategory sql.NullString
		var balance sql.NullFloat64
		var source string
		err := rows.Scan(&c.Transaction.Hash, &c.Transaction.Date,
			&c.Transaction.Description, &c.Transaction.Normalized, &vendorText,
			&c.Transaction.Amount, &balance, &c.Transaction.Account,
			&c.Transaction.Currency, &mainCategory, &subCategory,
			&c.Confidence, &source)
		if err != nil {
			return nil, fmt.Errorf("failed to scan classified transaction: %w", err)
		}
		c.Transaction.VendorText = vendorText.String
		c.Vendor = vendorText.String
		if balance.Valid {
			b := balance.Float64
			c.Transaction.Balance = &b
		}
		c.MainCategory = mainCategory.String
		c.SubCategory = subCategory.String
		c.MainSource = model.ClassificationSource(source)
		classified = append(classified, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating classified transactions: %w", err)
	}

	return classified, nil
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var vendorText sql.NullString
		var balance sql.NullFloat64
		var account sql.NullString
		err := rows.Scan(&t.Hash, &t.Date, &t.Description, &t.Normalized,
			&vendorText, &t.Amount, &balance, &account, &t.Currency)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.VendorText = vendorText.String
		t.Account = account.String
		if balance.Valid {
			b := balance.Float64
			t.Balance = &b
		}
		txns = append(txns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txns, nil
}
