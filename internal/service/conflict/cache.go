package conflict

import (
	"sync"

	"github.com/google/uuid"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

// pairKey identifies an unordered framework pair. Keys are canonicalized so
// (A,B) and (B,A) hit the same entry.
type pairKey struct {
	low  uuid.UUID
	high uuid.UUID
}

func newPairKey(a, b uuid.UUID) pairKey {
	if a.String() > b.String() {
		a, b = b, a
	}
	return pairKey{low: a, high: b}
}

// pairCache memoizes per-pair detection results. Population is idempotent
// (same key yields the same value), so concurrent writers racing on a key are
// benign; the RWMutex keeps the map itself safe when a detector instance is
// shared.
type pairCache struct {
	mu      sync.RWMutex
	entries map[pairKey][]*normative.Conflict
}

func newPairCache() *pairCache {
	return &pairCache{entries: make(map[pairKey][]*normative.Conflict)}
}

func (c *pairCache) get(key pairKey) ([]*normative.Conflict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *pairCache) put(key pairKey, conflicts []*normative.Conflict) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = conflicts
}

func (c *pairCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
