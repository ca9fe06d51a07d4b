package authz

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// CapabilityCache is an optional TTL'd LRU of resolved effective capability
// maps, keyed by user id. The engine never caches by default; wiring a
// cache is a caller decision and is only safe alongside invalidation on
// role, plan and user mutation (see RedisInvalidator for the multi-instance
// story).
type CapabilityCache struct {
	cache *lru.LRU[int64, CapabilityMap]

	// byOrg indexes cached user ids per organization so a plan change can
	// flush a whole tenant. Kept consistent via the eviction callback.
	mu    sync.Mutex
	byOrg map[int64]map[int64]struct{}
	orgOf map[int64]int64
}

// NewCapabilityCache creates a cache holding up to size entries for at most
// ttl each.
func NewCapabilityCache(size int, ttl time.Duration) *CapabilityCache {
	if size < 1 {
		size = 1024
	}
	c := &CapabilityCache{
		byOrg: make(map[int64]map[int64]struct{}),
		orgOf: make(map[int64]int64),
	}
	c.cache = lru.NewLRU[int64, CapabilityMap](size, c.onEvict, ttl)
	return c
}

// Get returns a copy of the cached map for userID, if present and fresh.
func (c *CapabilityCache) Get(userID int64) (CapabilityMap, bool) {
	caps, ok := c.cache.Get(userID)
	if !ok {
		return nil, false
	}
	return caps.Clone(), true
}

// Set stores a resolved map. The value is copied so later mutation by the
// caller cannot poison the cache.
func (c *CapabilityCache) Set(userID, orgID int64, caps CapabilityMap) {
	c.mu.Lock()
	if set, ok := c.byOrg[orgID]; ok {
		set[userID] = struct{}{}
	} else {
		c.byOrg[orgID] = map[int64]struct{}{userID: {}}
	}
	c.orgOf[userID] = orgID
	c.mu.Unlock()

	c.cache.Add(userID, caps.Clone())
}

// Invalidate evicts one user.
func (c *CapabilityCache) Invalidate(userID int64) {
	c.cache.Remove(userID)
}

// InvalidateUser evicts one user. Mirrors RedisInvalidator so single-node
// deployments can use the cache directly as the invalidation sink.
func (c *CapabilityCache) InvalidateUser(_ context.Context, userID int64) {
	c.cache.Remove(userID)
}

// InvalidateOrg evicts every cached user of an organization. Satisfies
// orgs.Invalidator so the plan expiry sweep can flush lapsed tenants.
func (c *CapabilityCache) InvalidateOrg(_ context.Context, orgID int64) {
	c.mu.Lock()
	ids := make([]int64, 0, len(c.byOrg[orgID]))
	for id := range c.byOrg[orgID] {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.cache.Remove(id)
	}
}

// Purge drops everything.
func (c *CapabilityCache) Purge() {
	c.cache.Purge()
}

func (c *CapabilityCache) onEvict(userID int64, _ CapabilityMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if orgID, ok := c.orgOf[userID]; ok {
		delete(c.byOrg[orgID], userID)
		if len(c.byOrg[orgID]) == 0 {
			delete(c.byOrg, orgID)
		}
		delete(c.orgOf, userID)
	}
}
