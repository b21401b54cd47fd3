package memcache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value    []byte
	expireAt time.Time // zero => no TTL
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// MemoryCache implements ports.Cache in process memory. There is no
// background sweeper: an entry past its TTL is reported as a miss by Get and
// List regardless of whether it has been physically removed yet, and List
// lazily evicts what it skips.
type MemoryCache struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]entry

	// now is swappable for expiry tests.
	now func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		namespaces: make(map[string]map[string]entry),
		now:        time.Now,
	}
}

// Get implements Cache.Get.
func (c *MemoryCache) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.namespaces[namespace][key]
	if !ok || e.expired(c.now()) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set implements Cache.Set.
func (c *MemoryCache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)

	e := entry{value: v}
	if ttl > 0 {
		e.expireAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ns, ok := c.namespaces[namespace]
	if !ok {
		ns = make(map[string]entry)
		c.namespaces[namespace] = ns
	}
	ns[key] = e
	return nil
}

// List implements Cache.List, evicting the expired entries it skips.
func (c *MemoryCache) List(ctx context.Context, namespace string) ([][]byte, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	ns := c.namespaces[namespace]
	if len(ns) == 0 {
		return nil, nil
	}

	out := make([][]byte, 0, len(ns))
	for k, e := range ns {
		if e.expired(now) {
			delete(ns, k)
			continue
		}
		out = append(out, e.value)
	}
	return out, nil
}
