package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCacheTTL is how long a loaded snapshot stays valid before the next
// read triggers a reload from the backing store.
const DefaultCacheTTL = 300 * time.Second

type cachedSnapshot struct {
	loadedAt time.Time
	snapshot *Snapshot
}

// Cache serves rule-set snapshots with a TTL. The current snapshot lives
// behind an atomic pointer: readers either see the fully-old or fully-new
// snapshot, never a partial one. Every mutation path must call Invalidate so
// the next read is consistent.
type Cache struct {
	store    Store
	current  atomic.Pointer[cachedSnapshot]
	logger   *slog.Logger
	ttl      time.Duration
	reloadMu sync.Mutex
}

// NewCache creates a snapshot cache over the given store. A zero ttl means
// DefaultCacheTTL.
func NewCache(store Store, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the current snapshot, reloading from the store when the cached
// copy has expired or was invalidated.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	if cached := c.current.Load(); cached != nil && time.Since(cached.loadedAt) < c.ttl {
		return cached.snapshot, nil
	}

	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	// Another goroutine may have reloaded while we waited for the lock.
	if cached := c.current.Load(); cached != nil && time.Since(cached.loadedAt) < c.ttl {
		return cached.snapshot, nil
	}

	snapshot, err := c.reload(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Invalidate discards the cached snapshot so the next Get reloads. Called by
// every rule mutation path.
func (c *Cache) Invalidate() {
	c.current.Store(nil)
}

func (c *Cache) reload(ctx context.Context) (*Snapshot, error) {
	ruleList, err := c.store.GetActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	salary, err := c.store.GetSalaryRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load salary rules: %w", err)
	}

	snapshot := NewSnapshot(ruleList, salary)
	c.current.Store(&cachedSnapshot{
		snapshot: snapshot,
		loadedAt: time.Now(),
	})

	c.logger.Info("rule set loaded",
		"rules", len(snapshot.Rules),
		"salary_rules", len(snapshot.SalaryRules))

	return snapshot, nil
}
