package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	key       string
	data      string
	createdAt time.Time
}

// MemoryCache is the in-memory variant used for tests and ephemeral
// namespaces. All operations are atomic with respect to each other via a
// single mutex, as required for a namespace (§5).
type MemoryCache[K, V any] struct {
	mu         sync.Mutex
	entries    map[string]*memoryEntry
	maxSize    int
	defaultTTL time.Duration

	keyGen KeyGenerator
	codec  ValueCodec[V]
	now    func() time.Time
}

// NewMemoryCache constructs a MemoryCache bounded to maxSize entries with
// the given default TTL (0 = always expired, <0 = never expired).
func NewMemoryCache[K, V any](keyGen KeyGenerator, codec ValueCodec[V], maxSize int, defaultTTL time.Duration) *MemoryCache[K, V] {
	return &MemoryCache[K, V]{
		entries:    make(map[string]*memoryEntry),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		keyGen:     keyGen,
		codec:      codec,
		now:        time.Now,
	}
}

func (c *MemoryCache[K, V]) effectiveTTL(override *time.Duration) time.Duration {
	if override != nil {
		return *override
	}
	return c.defaultTTL
}

func (c *MemoryCache[K, V]) Get(ctx context.Context, key K, ttlOverride *time.Duration) (V, bool) {
	var zero V

	stringKey, err := c.keyGen.GenerateKey(key)
	if err != nil {
		return zero, false
	}

	ttl := c.effectiveTTL(ttlOverride)

	c.mu.Lock()
	entry, found := c.entries[stringKey]
	if !found {
		c.mu.Unlock()
		return zero, false
	}

	if isExpired(entry.createdAt, ttl, c.now()) {
		delete(c.entries, stringKey)
		c.mu.Unlock()
		return zero, false
	}
	data := entry.data
	c.mu.Unlock()

	v, err := c.codec.Decode(data)
	if err != nil {
		return zero, false
	}
	return v, true
}

// isExpired implements the §3 expiry rule: ttl=0 means "always expired",
// ttl<0 means "never expired", otherwise compare elapsed age against ttl.
func isExpired(createdAt time.Time, ttl time.Duration, now time.Time) bool {
	if ttl == 0 {
		return true
	}
	if ttl < 0 {
		return false
	}
	return now.Sub(createdAt) > ttl
}

func (c *MemoryCache[K, V]) Set(ctx context.Context, key K, value V) error {
	stringKey, err := c.keyGen.GenerateKey(key)
	if err != nil {
		return nil // cache errors are swallowed, §7 ErrCache
	}
	data, err := c.codec.Encode(value)
	if err != nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[stringKey] = &memoryEntry{key: stringKey, data: data, createdAt: c.now()}
	c.evictLocked()
	return nil
}

// evictLocked enforces the size bound: while over maxSize, drop the entry
// with the smallest createdAt, breaking ties by the lexicographically
// smallest key. Must be called with c.mu held.
func (c *MemoryCache[K, V]) evictLocked() {
	if c.maxSize <= 0 || len(c.entries) <= c.maxSize {
		return
	}

	ordered := make([]*memoryEntry, 0, len(c.entries))
	for _, e := range c.entries {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].createdAt.Equal(ordered[j].createdAt) {
			return ordered[i].createdAt.Before(ordered[j].createdAt)
		}
		return ordered[i].key < ordered[j].key
	})

	toDrop := len(c.entries) - c.maxSize
	for i := 0; i < toDrop; i++ {
		delete(c.entries, ordered[i].key)
	}
}

func (c *MemoryCache[K, V]) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*memoryEntry)
	return nil
}

func (c *MemoryCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Enabled:    true,
		Entries:    len(c.entries),
		MaxSize:    c.maxSize,
		DefaultTTL: c.defaultTTL,
	}
}
