package agentui

import (
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Abdssamie/agent-ui-sub001/internal/singleflight"
)

// CacheStats is a point-in-time snapshot of cache activity.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Entries   int
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

type cacheShard[V any] struct {
	mu    sync.Mutex
	store map[string]*cacheEntry[V]
}

// Cache is a sharded in-memory TTL cache. Expired entries are logically
// absent and evicted lazily on access. GetOrSet coalesces concurrent
// producers per key. Safe for concurrent use.
type Cache[V any] struct {
	shards    []*cacheShard[V]
	numShards int
	group     *singleflight.Group[V]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	metrics *MetricsCollector
}

// NewCache creates an empty cache.
func NewCache[V any]() *Cache[V] {
	numShards := 16
	shards := make([]*cacheShard[V], numShards)
	for i := range shards {
		shards[i] = &cacheShard[V]{store: make(map[string]*cacheEntry[V])}
	}
	return &Cache[V]{
		shards:    shards,
		numShards: numShards,
		group:     singleflight.New[V](),
	}
}

// AttachMetrics mirrors cache activity into a Prometheus collector.
func (c *Cache[V]) AttachMetrics(mc *MetricsCollector) {
	c.metrics = mc
}

func (c *Cache[V]) getShard(key string) *cacheShard[V] {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%uint32(c.numShards)]
}

// Get returns the live value for key. Expired entries are evicted and
// reported as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	entry, exists := shard.store[key]
	if !exists {
		c.misses.Add(1)
		c.recordMiss()
		return zero, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(shard.store, key)
		c.evictions.Add(1)
		c.misses.Add(1)
		c.recordMiss()
		return zero, false
	}

	c.hits.Add(1)
	c.recordHit()
	return entry.value, true
}

// Set stores value under key for the given ttl.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	shard.store[key] = &cacheEntry[V]{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// GetOrSet returns the cached value for key, or runs producer and caches
// its result. Under concurrent callers the producer runs at most once per
// key: late callers wait for the first producer and share its outcome.
// Producer errors are not cached.
func (c *Cache[V]) GetOrSet(key string, producer func() (V, error), ttl time.Duration) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	return c.group.Do(key, func() (V, error) {
		// A producer that finished while we queued may have filled the key.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := producer()
		if err != nil {
			var zero V
			return zero, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
}

// Invalidate removes key. It reports whether an entry was present.
func (c *Cache[V]) Invalidate(key string) bool {
	shard := c.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, exists := shard.store[key]; !exists {
		return false
	}
	delete(shard.store, key)
	c.evictions.Add(1)
	return true
}

// InvalidatePattern removes every key containing the given substring and
// returns the number of entries evicted.
func (c *Cache[V]) InvalidatePattern(substring string) int {
	removed := 0
	for _, shard := range c.shards {
		shard.mu.Lock()
		for key := range shard.store {
			if strings.Contains(key, substring) {
				delete(shard.store, key)
				removed++
			}
		}
		shard.mu.Unlock()
	}
	c.evictions.Add(uint64(removed))
	return removed
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.store = make(map[string]*cacheEntry[V])
		shard.mu.Unlock()
	}
}

// Len returns the number of stored entries, including not-yet-evicted
// expired ones.
func (c *Cache[V]) Len() int {
	n := 0
	for _, shard := range c.shards {
		shard.mu.Lock()
		n += len(shard.store)
		shard.mu.Unlock()
	}
	return n
}

// Stats returns cumulative counters and the current entry count.
func (c *Cache[V]) Stats() CacheStats {
	return CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   c.Len(),
	}
}

func (c *Cache[V]) recordHit() {
	if c.metrics != nil {
		c.metrics.RecordCacheHit()
	}
}

func (c *Cache[V]) recordMiss() {
	if c.metrics != nil {
		c.metrics.RecordCacheMiss()
	}
}

// CacheKey builds a deterministic cache key from semantic components
// (resource kind, base address, identifiers) so that equivalent logical
// requests collide regardless of call site.
func CacheKey(kind, base string, parts ...string) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteByte(':')
	b.WriteString(strings.TrimRight(base, "/"))
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}
