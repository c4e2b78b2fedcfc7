package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrate_FreshDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "fresh.db")
	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, version)

	require.NoError(t, store.Migrate(ctx))

	version, err = store.SchemaVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	before, err := store.GetActiveRules(ctx)
	require.NoError(t, err)

	// Running again must not re-apply migrations or re-seed.
	require.NoError(t, store.Migrate(ctx))

	after, err := store.GetActiveRules(ctx)
	require.NoError(t, err)
	require.Equal(t, len(before), len(after))

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, ExpectedSchemaVersion, version)
}

func TestMigrate_SeedsFirstPassRules(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	rules, err := store.GetActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, len(firstPassRules))

	salary, err := store.GetSalaryRules(ctx)
	require.NoError(t, err)
	wantSalary := 0
	for _, names := range firstPassSalaryNames {
		wantSalary += len(names)
	}
	require.Len(t, salary, wantSalary)

	// Seeded rules come back sorted for the engine.
	for i := 1; i < len(rules); i++ {
		require.LessOrEqual(t, rules[i-1].Priority, rules[i].Priority)
	}
}
