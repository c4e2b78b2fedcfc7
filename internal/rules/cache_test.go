package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petgully/tally/internal/model"
)

func TestCache_ServesCachedSnapshotWithinTTL(t *testing.T) {
	store := &stubStore{
		rules: []model.Rule{{ID: 1, Name: "R", Priority: 10, IsActive: true, Any: []string{"FOO"}, MainCategory: "A", SubCategory: "a"}},
	}
	cache := NewCache(store, time.Minute, nil)
	ctx := context.Background()

	first, err := cache.Get(ctx)
	require.NoError(t, err)
	second, err := cache.Get(ctx)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.loads)
}

func TestCache_InvalidateForcesReload(t *testing.T) {
	store := &stubStore{}
	cache := NewCache(store, time.Minute, nil)
	ctx := context.Background()

	_, err := cache.Get(ctx)
	require.NoError(t, err)

	store.rules = []model.Rule{{ID: 7, Name: "New", Priority: 5, IsActive: true, Any: []string{"BAR"}, MainCategory: "B", SubCategory: "b"}}
	cache.Invalidate()

	snapshot, err := cache.Get(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, store.loads)
	require.Len(t, snapshot.Rules, 1)
	assert.Equal(t, "New", snapshot.Rules[0].Name)
}

func TestCache_ExpiredSnapshotReloads(t *testing.T) {
	store := &stubStore{}
	cache := NewCache(store, time.Nanosecond, nil)
	ctx := context.Background()

	_, err := cache.Get(ctx)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.loads)
}

func TestCache_StoreErrorPropagates(t *testing.T) {
	cache := NewCache(&stubStore{err: assert.AnError}, time.Minute, nil)

	_, err := cache.Get(context.Background())
	assert.Error(t, err)
}

func TestSnapshot_SortsByPriorityStable(t *testing.T) {
	ruleList := []model.Rule{
		{ID: 1, Name: "C", Priority: 30},
		{ID: 2, Name: "A1", Priority: 10},
		{ID: 3, Name: "A2", Priority: 10},
		{ID: 4, Name: "B", Priority: 20},
	}

	snapshot := NewSnapshot(ruleList, nil)

	got := make([]string, 0, len(snapshot.Rules))
	for _, r := range snapshot.Rules {
		got = append(got, r.Name)
	}
	assert.Equal(t, []string{"A1", "A2", "B", "C"}, got)

	// The caller's slice must stay untouched.
	assert.Equal(t, "C", ruleList[0].Name)
}

func TestSnapshot_Keywords(t *testing.T) {
	snapshot := NewSnapshot(
		[]model.Rule{{Any: []string{"SWIGGY", "ZOMATO"}}, {Any: []string{"SWIGGY"}}},
		[]model.SalaryRule{{EmployeeName: "KASIMALLA"}},
	)

	known := snapshot.Keywords()
	assert.Len(t, known, 3)
	assert.Contains(t, known, "SWIGGY")
	assert.Contains(t, known, "ZOMATO")
	assert.Contains(t, known, "KASIMALLA")
}
