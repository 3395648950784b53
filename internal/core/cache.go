// Package core provides the client-side building blocks shared by the API client and session store.
package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/idnremote/idnremote-go/internal/clock"
	"github.com/idnremote/idnremote-go/internal/ports"
)

const (
	// DefaultCacheKeyPrefix namespaces cache entries from unrelated stored data.
	DefaultCacheKeyPrefix = "cache_"
	// DefaultCacheTTL applies when Set is called with a non-positive TTL.
	DefaultCacheTTL = time.Hour
)

// CacheEvent names an outcome observed by the cache, for metrics.
type CacheEvent string

const (
	CacheHit          CacheEvent = "hit"
	CacheMiss         CacheEvent = "miss"
	CacheExpired      CacheEvent = "expired"
	CacheStorageError CacheEvent = "storage_error"
	CacheDecodeError  CacheEvent = "decode_error"
)

// CacheRecorder receives cache outcomes. Implementations must be safe for concurrent use.
type CacheRecorder interface {
	RecordCache(event CacheEvent, key string)
}

// cacheEntry is the stored form. Expiry is Unix milliseconds.
type cacheEntry struct {
	Data   json.RawMessage `json:"data"`
	Expiry int64           `json:"expiry"`
}

// ExpiringCacheOptions bundles dependencies for NewExpiringCache.
type ExpiringCacheOptions struct {
	Storage    ports.Storage
	Clock      clock.Clock
	Logger     *slog.Logger
	Recorder   CacheRecorder
	KeyPrefix  string
	DefaultTTL time.Duration
}

// ExpiringCache memoizes values in a Storage with a per-entry TTL.
//
// It never fails: storage and decoding problems are logged and reported as a miss
// (reads) or dropped (writes). Expired entries are deleted the first time they are read.
type ExpiringCache struct {
	storage    ports.Storage
	clock      clock.Clock
	logger     *slog.Logger
	recorder   CacheRecorder
	prefix     string
	defaultTTL time.Duration
}

// NewExpiringCache creates an ExpiringCache.
func NewExpiringCache(opts ExpiringCacheOptions) *ExpiringCache {
	c := &ExpiringCache{
		storage:    opts.Storage,
		clock:      opts.Clock,
		logger:     opts.Logger,
		recorder:   opts.Recorder,
		prefix:     opts.KeyPrefix,
		defaultTTL: opts.DefaultTTL,
	}
	if c.clock == nil {
		c.clock = clock.Real{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.prefix == "" {
		c.prefix = DefaultCacheKeyPrefix
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = DefaultCacheTTL
	}
	c.logger = c.logger.With("component", "expiring_cache")
	return c
}

// StorageKey returns the namespaced key a logical key is stored under.
func (c *ExpiringCache) StorageKey(key string) string {
	return c.prefix + key
}

// Get decodes the live entry for key into dst and reports whether it was found.
// dst must be a pointer. On any failure dst is left untouched and false is returned.
func (c *ExpiringCache) Get(ctx context.Context, key string, dst any) bool {
	skey := c.StorageKey(key)

	raw, err := c.storage.Get(ctx, skey)
	if err != nil {
		c.logger.WarnContext(ctx, "cache read failed", "key", skey, "error", err)
		c.record(CacheStorageError, key)
		return false
	}
	if raw == nil {
		c.record(CacheMiss, key)
		return false
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.WarnContext(ctx, "cache entry undecodable", "key", skey, "error", err)
		c.record(CacheDecodeError, key)
		return false
	}

	if entry.Expiry <= clock.UnixMilli(c.clock) {
		c.Remove(ctx, key)
		c.record(CacheExpired, key)
		return false
	}

	if err := json.Unmarshal(entry.Data, dst); err != nil {
		c.logger.WarnContext(ctx, "cache payload undecodable", "key", skey, "error", err)
		c.record(CacheDecodeError, key)
		return false
	}

	c.record(CacheHit, key)
	return true
}

// Set stores value under key for ttl, overwriting any existing entry.
// A non-positive ttl uses the cache default. Write failures are logged and dropped.
func (c *ExpiringCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	skey := c.StorageKey(key)

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "cache value not encodable", "key", skey, "error", err)
		return
	}
	raw, err := json.Marshal(cacheEntry{
		Data:   data,
		Expiry: clock.UnixMilli(c.clock) + ttl.Milliseconds(),
	})
	if err != nil {
		c.logger.WarnContext(ctx, "cache entry not encodable", "key", skey, "error", err)
		return
	}

	if err := c.storage.Set(ctx, skey, raw); err != nil {
		c.logger.WarnContext(ctx, "cache write dropped", "key", skey, "error", err)
		c.record(CacheStorageError, key)
	}
}

// Remove deletes key. Missing keys and storage failures are not reported.
func (c *ExpiringCache) Remove(ctx context.Context, key string) {
	skey := c.StorageKey(key)
	if err := c.storage.Remove(ctx, skey); err != nil {
		c.logger.WarnContext(ctx, "cache remove failed", "key", skey, "error", err)
		c.record(CacheStorageError, key)
	}
}

func (c *ExpiringCache) record(ev CacheEvent, key string) {
	if c.recorder != nil {
		c.recorder.RecordCache(ev, key)
	}
}

// Lookup is a typed wrapper over ExpiringCache.Get.
func Lookup[T any](ctx context.Context, c *ExpiringCache, key string) (T, bool) {
	var v T
	if !c.Get(ctx, key, &v) {
		var zero T
		return zero, false
	}
	return v, true
}
