package format

import "github.com/gogpu/vertexdata/internal/cache"

// DefaultCacheSize is the number of plans kept by NewCachedPolicy when a
// non-positive size is requested.
const DefaultCacheSize = 64

// CachedPolicy memoises the plans of another policy. Errors are not cached.
type CachedPolicy struct {
	policy Policy
	plans  *cache.Cache[Key, Plan]
}

// NewCachedPolicy wraps p with an LRU cache of size plans.
func NewCachedPolicy(p Policy, size int) *CachedPolicy {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &CachedPolicy{policy: p, plans: cache.New[Key, Plan](size)}
}

// Plan implements Policy.
func (c *CachedPolicy) Plan(k Key) (Plan, error) {
	return c.plans.GetOrCreate(k, func() (Plan, error) {
		return c.policy.Plan(k)
	})
}

// CacheStats holds the counters of a CachedPolicy.
type CacheStats = cache.Stats

// Stats returns the plan cache counters.
func (c *CachedPolicy) Stats() CacheStats {
	return c.plans.Stats()
}
