package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const snapshotCacheName = "snapshot"

// SnapshotCache persists the last good snapshot along with when it was stored.
type SnapshotCache interface {
	Load(ctx context.Context) (Snapshot, time.Time, bool, error)
	Save(ctx context.Context, snapshot Snapshot, storedAt time.Time) error
}

type cachedSnapshot struct {
	Snapshot Snapshot  `json:"snapshot"`
	StoredAt time.Time `json:"stored_at"`
}

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Lookup(ctx context.Context, key string) (string, bool, error)
	CatalogKey(name string) string
}

// RedisSnapshotCache keeps the snapshot as JSON under a single key. The key
// lives for the stale window; freshness is judged from StoredAt by the caller.
type RedisSnapshotCache struct {
	store kvStore
	ttl   time.Duration
}

func NewRedisSnapshotCache(store kvStore, staleTTL time.Duration) (*RedisSnapshotCache, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store is required")
	}
	if staleTTL <= 0 {
		return nil, fmt.Errorf("stale ttl must be positive")
	}
	return &RedisSnapshotCache{store: store, ttl: staleTTL}, nil
}

func (c *RedisSnapshotCache) Load(ctx context.Context) (Snapshot, time.Time, bool, error) {
	raw, ok, err := c.store.Lookup(ctx, c.store.CatalogKey(snapshotCacheName))
	if err != nil || !ok {
		return Snapshot{}, time.Time{}, false, err
	}
	var entry cachedSnapshot
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return Snapshot{}, time.Time{}, false, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return entry.Snapshot, entry.StoredAt, true, nil
}

func (c *RedisSnapshotCache) Save(ctx context.Context, snapshot Snapshot, storedAt time.Time) error {
	payload, err := json.Marshal(cachedSnapshot{Snapshot: snapshot, StoredAt: storedAt})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return c.store.Set(ctx, c.store.CatalogKey(snapshotCacheName), string(payload), c.ttl)
}

// MemorySnapshotCache is the process-local fallback used without Redis.
type MemorySnapshotCache struct {
	mu    sync.RWMutex
	entry *cachedSnapshot
}

func NewMemorySnapshotCache() *MemorySnapshotCache {
	return &MemorySnapshotCache{}
}

func (c *MemorySnapshotCache) Load(context.Context) (Snapshot, time.Time, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.entry == nil {
		return Snapshot{}, time.Time{}, false, nil
	}
	return c.entry.Snapshot, c.entry.StoredAt, true, nil
}

func (c *MemorySnapshotCache) Save(_ context.Context, snapshot Snapshot, storedAt time.Time) error {
	c.mu.Lock()
	c.entry = &cachedSnapshot{Snapshot: snapshot, StoredAt: storedAt}
	c.mu.Unlock()
	return nil
}
