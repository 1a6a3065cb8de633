package bus

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DedupeCache drops redelivered events. The gateway resends undelivered
// events after a reconnect, so the same (event, seq) pair can arrive more
// than once; the first delivery wins.
//
// Entries expire after the TTL and the cache is capped at maxSize, evicting
// oldest first.
type DedupeCache struct {
	cache *expirable.LRU[string, struct{}]
}

// NewDedupeCache creates a dedupe cache holding at most maxSize keys for
// at most ttl each.
func NewDedupeCache(ttl time.Duration, maxSize int) *DedupeCache {
	return &DedupeCache{
		cache: expirable.NewLRU[string, struct{}](maxSize, nil, ttl),
	}
}

// IsDuplicate returns true if key was already seen within the TTL window.
// If not a duplicate, records the key for future checks.
func (d *DedupeCache) IsDuplicate(key string) bool {
	if _, ok := d.cache.Get(key); ok {
		return true
	}
	d.cache.Add(key, struct{}{})
	return false
}
