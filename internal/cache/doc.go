// Package cache provides the bounded LRU cache used to memoise conversion
// plans.
//
// Plan lookups happen once per attribute per draw, always with a small set of
// distinct attribute shapes, so the cache is a single map with an intrusive
// recency list rather than a sharded structure:
//
//	c := cache.New[format.Key, format.Plan](64)
//	plan, err := c.GetOrCreate(key, func() (format.Plan, error) {
//	    return policy.Plan(key)
//	})
//
// # Thread Safety
//
// Cache is safe for concurrent use. It must not be copied after creation.
package cache
