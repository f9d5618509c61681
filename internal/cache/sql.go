package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// InitCacheSchema creates the cache_entries table used by SQLCache if it
// does not already exist. Idempotent and safe to call on every startup,
// mirroring storage.InitSchema's style in the teacher repo.
func InitCacheSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    namespace  TEXT NOT NULL,
    key        TEXT NOT NULL,
    data       TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY(namespace, key)
);
`
	_, err := db.Exec(schema)
	return err
}

// SQLCache is the persistent cache variant, backed by the
// (namespace, key, data, created_at, updated_at) schema of §6. TTL is
// evaluated at read time from updated_at.
type SQLCache[K, V any] struct {
	db        *sql.DB
	namespace string
	maxSize   int
	defaultTTL time.Duration

	keyGen KeyGenerator
	codec  ValueCodec[V]
	log    zerolog.Logger
	now    func() time.Time
}

// NewSQLCache constructs a SQLCache scoped to namespace.
func NewSQLCache[K, V any](db *sql.DB, namespace string, keyGen KeyGenerator, codec ValueCodec[V], maxSize int, defaultTTL time.Duration, log zerolog.Logger) *SQLCache[K, V] {
	return &SQLCache[K, V]{
		db:         db,
		namespace:  namespace,
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		keyGen:     keyGen,
		codec:      codec,
		log:        log.With().Str("namespace", namespace).Logger(),
		now:        time.Now,
	}
}

func (c *SQLCache[K, V]) effectiveTTL(override *time.Duration) time.Duration {
	if override != nil {
		return *override
	}
	return c.defaultTTL
}

func (c *SQLCache[K, V]) Get(ctx context.Context, key K, ttlOverride *time.Duration) (V, bool) {
	var zero V

	stringKey, err := c.keyGen.GenerateKey(key)
	if err != nil {
		return zero, false
	}

	var data string
	var updatedAt int64
	row := c.db.QueryRowContext(ctx,
		`SELECT data, updated_at FROM cache_entries WHERE namespace = ? AND key = ?`,
		c.namespace, stringKey)
	if err := row.Scan(&data, &updatedAt); err != nil {
		if err != sql.ErrNoRows {
			c.log.Error().Err(err).Str("key", stringKey).Msg("cache get failed")
		}
		return zero, false
	}

	ttl := c.effectiveTTL(ttlOverride)
	if isExpired(time.Unix(updatedAt, 0).UTC(), ttl, c.now()) {
		if _, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE namespace = ? AND key = ?`, c.namespace, stringKey); err != nil {
			c.log.Error().Err(err).Str("key", stringKey).Msg("cache expire-delete failed")
		}
		return zero, false
	}

	v, err := c.codec.Decode(data)
	if err != nil {
		c.log.Error().Err(err).Str("key", stringKey).Msg("cache decode failed")
		return zero, false
	}
	return v, true
}

func (c *SQLCache[K, V]) Set(ctx context.Context, key K, value V) error {
	stringKey, err := c.keyGen.GenerateKey(key)
	if err != nil {
		return nil
	}
	data, err := c.codec.Encode(value)
	if err != nil {
		return nil
	}

	now := c.now().UTC().Unix()
	_, err = c.db.ExecContext(ctx, `
INSERT INTO cache_entries(namespace, key, data, created_at, updated_at)
VALUES(?, ?, ?, ?, ?)
ON CONFLICT(namespace, key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
`, c.namespace, stringKey, data, now, now)
	if err != nil {
		c.log.Error().Err(err).Str("key", stringKey).Msg("cache set failed")
		return nil
	}

	c.evict(ctx)
	return nil
}

// evict enforces the size bound for the namespace by deleting the oldest
// (by created_at, then key) rows beyond maxSize.
func (c *SQLCache[K, V]) evict(ctx context.Context) {
	if c.maxSize <= 0 {
		return
	}

	var count int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries WHERE namespace = ?`, c.namespace).Scan(&count); err != nil {
		c.log.Error().Err(err).Msg("cache count failed")
		return
	}
	if count <= c.maxSize {
		return
	}

	toDrop := count - c.maxSize
	_, err := c.db.ExecContext(ctx, fmt.Sprintf(`
DELETE FROM cache_entries WHERE namespace = ? AND key IN (
  SELECT key FROM cache_entries WHERE namespace = ?
  ORDER BY created_at ASC, key ASC LIMIT %d
)`, toDrop), c.namespace, c.namespace)
	if err != nil {
		c.log.Error().Err(err).Msg("cache evict failed")
	}
}

func (c *SQLCache[K, V]) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE namespace = ?`, c.namespace)
	return err
}

func (c *SQLCache[K, V]) Stats() Stats {
	var count int
	_ = c.db.QueryRow(`SELECT COUNT(*) FROM cache_entries WHERE namespace = ?`, c.namespace).Scan(&count)
	return Stats{Enabled: true, Entries: count, MaxSize: c.maxSize, DefaultTTL: c.defaultTTL}
}
