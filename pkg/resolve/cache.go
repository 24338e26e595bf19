package resolve

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/crewlink/crewlink/pkg/identity"
)

// resultCache maps normalized identity keys to resolved results for the
// process lifetime. A stored nil is a confirmed no-match, distinct from a key
// that was never looked up. Entries are never evicted.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]*identity.Resolved
	group   singleflight.Group
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]*identity.Resolved)}
}

func (c *resultCache) get(key string) (*identity.Resolved, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *resultCache) put(key string, v *identity.Resolved) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
}

// resolve returns the cached value for key, or computes it via fn with
// concurrent callers for the same key coalesced into one computation. A
// non-nil error from fn (lookup abandoned mid-flight) is not cached, so the
// key stays resolvable later.
func (c *resultCache) resolve(key string, fn func() (*identity.Resolved, error)) *identity.Resolved {
	v, err, _ := c.group.Do(key, func() (any, error) {
		if cached, ok := c.get(key); ok {
			return cached, nil
		}
		res, err := fn()
		if err != nil {
			return nil, err
		}
		c.put(key, res)
		return res, nil
	})
	if err != nil || v == nil {
		return nil
	}
	res, ok := v.(*identity.Resolved)
	if !ok {
		return nil
	}
	return res
}

// size reports the number of resolved keys, for stats surfaces.
func (c *resultCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
