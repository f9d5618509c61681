// Package cache implements the generic, TTL- and size-bounded cache layer
// (C1/C2) consumed by the geocoding/weather client (internal/weather) and
// the URL fetcher's raw and condensed content caches (internal/urlfetch).
package cache

import (
	"context"
	"time"
)

// Stats is returned by Cache.Stats for monitoring and for the null
// implementation to report itself as disabled.
type Stats struct {
	Enabled    bool
	Entries    int
	MaxSize    int
	DefaultTTL time.Duration
}

// Cache is the generic key/value cache contract every backend in this
// package satisfies. K is mapped to a string key via a KeyGenerator; V is
// encoded/decoded via a ValueCodec.
type Cache[K, V any] interface {
	// Get looks up key, optionally overriding the namespace's default TTL.
	// A nil ttlOverride uses the default; any failure (including an expired
	// entry) is reported as ok=false and never returns an error — cache
	// failures are swallowed per §7 (ErrCache).
	Get(ctx context.Context, key K, ttlOverride *time.Duration) (V, bool)
	// Set stores value under key with the current wall-clock timestamp,
	// then enforces the namespace's size bound.
	Set(ctx context.Context, key K, value V) error
	// Clear drops every entry in the namespace.
	Clear(ctx context.Context) error
	// Stats reports the namespace's current occupancy and configuration.
	Stats() Stats
}
