package bucket

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cacheKey is the single key under which the bucket list is cached.
const cacheKey = "buckets"

// Cached wraps a Lister with a TTL cache. The enumeration call is cold and
// the bucket universe changes rarely; a short TTL keeps repeated all-bucket
// queries from hammering the collaborator while staying eventually fresh.
type Cached struct {
	inner Lister
	cache *expirable.LRU[string, []string]
}

// NewCached wraps a lister with the given TTL (default: 5 minutes).
func NewCached(inner Lister, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cached{
		inner: inner,
		cache: expirable.NewLRU[string, []string](1, nil, ttl),
	}
}

// List implements Lister. Failed enumerations are never cached.
func (c *Cached) List(ctx context.Context) ([]string, error) {
	if buckets, ok := c.cache.Get(cacheKey); ok {
		out := make([]string, len(buckets))
		copy(out, buckets)
		return out, nil
	}

	buckets, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.Add(cacheKey, buckets)
	out := make([]string, len(buckets))
	copy(out, buckets)
	return out, nil
}

// Invalidate drops the cached list so the next List hits the collaborator.
func (c *Cached) Invalidate() {
	c.cache.Remove(cacheKey)
}
