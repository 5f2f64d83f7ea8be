package api

import (
	"time"

	"replypilot/backend/pkg/cache"
)

// MemoryDedup is the DedupGuard used when redis is not configured. It is
// process-local, so after a restart the durable notification-log check is
// the only protection, which is acceptable for single-instance deploys.
type MemoryDedup struct {
	cache *cache.Cache
}

// NewMemoryDedup creates an in-memory dedup guard
func NewMemoryDedup(c *cache.Cache) *MemoryDedup {
	return &MemoryDedup{cache: c}
}

// FirstSeen reports whether the key is new, claiming it for the TTL window
func (m *MemoryDedup) FirstSeen(key string, ttl time.Duration) bool {
	if _, found := m.cache.Get(key); found {
		return false
	}
	m.cache.SetWithExpiration(key, true, ttl)
	return true
}
