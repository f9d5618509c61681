package cache

import (
	"context"
	"time"
)

// NullCache is a no-op cache, semantically valid anywhere a Cache is
// expected: Get always misses, Set always reports success without storing
// anything, Clear is a no-op, and Stats reports itself disabled.
type NullCache[K, V any] struct{}

func (NullCache[K, V]) Get(ctx context.Context, key K, ttlOverride *time.Duration) (V, bool) {
	var zero V
	return zero, false
}

func (NullCache[K, V]) Set(ctx context.Context, key K, value V) error { return nil }

func (NullCache[K, V]) Clear(ctx context.Context) error { return nil }

func (NullCache[K, V]) Stats() Stats { return Stats{Enabled: false} }
