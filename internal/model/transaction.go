package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single bank transaction from any statement source.
type Transaction struct {
	Date        time.Time
	ID          string
	Description string // Raw narration text
	Normalized  string // Canonicalized narration
	VendorText  string // Counterparty hint, when the source supplies one
	Account     string
	Currency    string
	Hash        string
	Amount      float64
	Balance     *float64
}

// GenerateHash creates a stable hash for duplicate detection. It hashes the
// normalized narration, not the raw one, so re-imports of the same statement
// with cosmetic whitespace differences dedupe correctly.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s|%s|%.2f|%s",
		t.Account,
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Normalized)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// LabeledTransaction is a corpus record with its verified categorization,
// consumed by the pattern learner.
type LabeledTransaction struct {
	ReviewedAt   *time.Time
	Normalized   string
	VendorText   string
	MainCategory string
	SubCategory  string
	Confidence   float64
}

// Labeled reports whether the record carries both category labels. The
// learner discards anything that does not.
func (lt *LabeledTransaction) Labeled() bool {
	return lt.MainCategory != "" && lt.SubCategory != ""
}
