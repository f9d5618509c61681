package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestMemoryCache(maxSize int, ttl time.Duration) *MemoryCache[string, string] {
	return NewMemoryCache[string, string](IdentityKeyGenerator{}, StringCodec{}, maxSize, ttl)
}

func TestMemoryCache_Idempotence(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(10, -1)

	require.NoError(t, c.Set(ctx, "k", "v"))
	require.NoError(t, c.Set(ctx, "k", "v"))

	v, ok := c.Get(ctx, "k", nil)
	require.True(t, ok)
	require.Equal(t, "v", v)

	require.NoError(t, c.Clear(ctx))
	_, ok = c.Get(ctx, "k", nil)
	require.False(t, ok)
}

func TestMemoryCache_TTLBoundary(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(10, time.Second)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	require.NoError(t, c.Set(ctx, "k", "v"))

	c.now = func() time.Time { return base.Add(1100 * time.Millisecond) }
	_, ok := c.Get(ctx, "k", nil)
	require.False(t, ok)

	stats := c.Stats()
	require.Equal(t, 0, stats.Entries)
}

func TestMemoryCache_NegativeTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(10, time.Second)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	require.NoError(t, c.Set(ctx, "k", "v"))

	c.now = func() time.Time { return base.Add(365 * 24 * time.Hour) }
	override := -1 * time.Second
	v, ok := c.Get(ctx, "k", &override)
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestMemoryCache_ZeroTTLAlwaysExpired(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(10, 0)
	require.NoError(t, c.Set(ctx, "k", "v"))
	_, ok := c.Get(ctx, "k", nil)
	require.False(t, ok)
}

func TestMemoryCache_SizeBound(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(2, -1)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	require.NoError(t, c.Set(ctx, "a", "1"))

	c.now = func() time.Time { return base.Add(time.Second) }
	require.NoError(t, c.Set(ctx, "b", "2"))

	c.now = func() time.Time { return base.Add(2 * time.Second) }
	require.NoError(t, c.Set(ctx, "c", "3"))

	require.LessOrEqual(t, c.Stats().Entries, 2)
	_, ok := c.Get(ctx, "a", nil)
	require.False(t, ok, "oldest entry should have been evicted")

	_, ok = c.Get(ctx, "b", nil)
	require.True(t, ok)
	_, ok = c.Get(ctx, "c", nil)
	require.True(t, ok)
}

func TestMemoryCache_SizeBoundTieBreaksByKey(t *testing.T) {
	ctx := context.Background()
	c := newTestMemoryCache(1, -1)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	require.NoError(t, c.Set(ctx, "b", "2"))
	require.NoError(t, c.Set(ctx, "a", "1"))

	// both inserted at the same timestamp; "a" < "b" lexicographically so
	// "a" is evicted first.
	_, ok := c.Get(ctx, "a", nil)
	require.False(t, ok)
	_, ok = c.Get(ctx, "b", nil)
	require.True(t, ok)
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	var c NullCache[string, string]

	require.NoError(t, c.Set(ctx, "k", "v"))
	_, ok := c.Get(ctx, "k", nil)
	require.False(t, ok)
	require.False(t, c.Stats().Enabled)
}

func TestIdentityKeyGenerator_RejectsNonString(t *testing.T) {
	var g IdentityKeyGenerator
	_, err := g.GenerateKey(42)
	require.Error(t, err)
}

func TestStructuredKeyGenerator_OrderIndependent(t *testing.T) {
	g := NewStructuredKeyGenerator()

	k1, err := g.GenerateKey(map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	k2, err := g.GenerateKey(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)

	require.Equal(t, k1, k2)
}

func TestStructuredKeyGenerator_NoHashReturnsJSON(t *testing.T) {
	g := StructuredKeyGenerator{SortKeys: true, Hash: false}
	k, err := g.GenerateKey(map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	require.Equal(t, `{"a":1,"b":2}`, k)
}

func TestHashKeyGenerator_Deterministic(t *testing.T) {
	var g HashKeyGenerator
	k1, err := g.GenerateKey(struct{ A int }{A: 1})
	require.NoError(t, err)
	k2, err := g.GenerateKey(struct{ A int }{A: 1})
	require.NoError(t, err)
	require.Equal(t, k1, k2)
	require.Len(t, k1, 128)
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	type payload struct {
		Name string
		N    int
	}
	var codec JSONCodec[payload]

	encoded, err := codec.Encode(payload{Name: "x", N: 3})
	require.NoError(t, err)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, payload{Name: "x", N: 3}, decoded)
}
