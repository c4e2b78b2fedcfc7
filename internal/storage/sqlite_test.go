package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/petgully/tally/internal/model"
)

// createTestStorage opens a migrated database in a temp dir.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// clearRules empties the seeded rule set so tests start from nothing.
func clearRules(t *testing.T, store *SQLiteStorage) {
	t.Helper()
	require.NoError(t, store.ReplaceRules(context.Background(), nil, nil))
}

// makeTestTransaction builds a transaction with a normalized narration and a
// generated hash.
func makeTestTransaction(desc string, amount float64, date time.Time) model.Transaction {
	txn := model.Transaction{
		Date:        date,
		Description: desc,
		Normalized:  desc,
		Account:     "acc1",
		Amount:      amount,
		Currency:    "INR",
	}
	txn.Hash = txn.GenerateHash()
	return txn
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrEmptyString)
}

func TestBeginRuleTx_CommitPersists(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	clearRules(t, store)
	ctx := context.Background()

	tx, err := store.BeginRuleTx(ctx)
	require.NoError(t, err)

	rule := model.Rule{
		Name: "Tx Rule", Priority: 10, Any: []string{"FOO"},
		MainCategory: "A", SubCategory: "a", IsActive: true,
	}
	require.NoError(t, tx.InsertRule(ctx, &rule))
	require.NoError(t, tx.Commit())

	rules, err := store.GetActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.Equal(t, "Tx Rule", rules[0].Name)
}

func TestBeginRuleTx_RollbackDiscards(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	clearRules(t, store)
	ctx := context.Background()

	tx, err := store.BeginRuleTx(ctx)
	require.NoError(t, err)

	rule := model.Rule{
		Name: "Doomed", Priority: 10, Any: []string{"FOO"},
		MainCategory: "A", SubCategory: "a", IsActive: true,
	}
	require.NoError(t, tx.InsertRule(ctx, &rule))

	// Visible inside the transaction before rollback.
	inside, err := tx.GetActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, inside, 1)

	require.NoError(t, tx.Rollback())

	rules, err := store.GetActiveRules(ctx)
	require.NoError(t, err)
	require.Empty(t, rules)
}
