package cart

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Registry maps session ids to their cart stores. It is owned by the
// composition root and lives for the process; nothing is persisted. Carts
// untouched for longer than the idle TTL are swept, since their session token
// has expired by then.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
	policy  PricingPolicy
	idleTTL time.Duration
	now     func() time.Time
}

type registryEntry struct {
	store   *Store
	touched atomic.Int64
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithIdleTTL sets how long a cart may sit unused before Sweep drops it.
// Zero disables sweeping.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		r.idleTTL = ttl
	}
}

// WithRegistryClock overrides time.Now.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRegistry(policy PricingPolicy, opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]*registryEntry),
		policy:  policy,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the session's store, creating an empty one on first use, and
// marks it as recently used.
func (r *Registry) Get(sessionID string) *Store {
	now := r.now().UnixNano()

	r.mu.RLock()
	entry, ok := r.entries[sessionID]
	if ok {
		entry.touched.Store(now)
	}
	r.mu.RUnlock()
	if ok {
		return entry.store
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.entries[sessionID]; ok {
		entry.touched.Store(now)
		return entry.store
	}
	entry = &registryEntry{store: NewStore(r.policy)}
	entry.touched.Store(now)
	r.entries[sessionID] = entry
	return entry.store
}

// Drop discards the session's store.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	delete(r.entries, sessionID)
	r.mu.Unlock()
}

// Len reports how many sessions currently hold a cart.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep drops every cart idle for longer than the idle TTL and reports how
// many went.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL).UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, entry := range r.entries {
		if entry.touched.Load() < cutoff {
			delete(r.entries, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps on every tick until ctx is done. onSweep, when set, receives the
// count of each sweep that evicted something.
func (r *Registry) Run(ctx context.Context, every time.Duration, onSweep func(evicted int)) {
	if r.idleTTL <= 0 || every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := r.Sweep(); evicted > 0 && onSweep != nil {
				onSweep(evicted)
			}
		}
	}
}
