package webapp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache stores verification outcomes. Only accepted sessions are cached.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// =============================================================================
// Caching verifier
// =============================================================================

// CachingVerifier remembers accepted payloads for ttl so repeated page loads of the same
// launch do not hit the backend. Rejections are never cached.
type CachingVerifier struct {
	next  Verifier
	cache Cache
	ttl   time.Duration
}

// NewCachingVerifier wraps next with cache.
func NewCachingVerifier(next Verifier, cache Cache, ttl time.Duration) *CachingVerifier {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachingVerifier{next: next, cache: cache, ttl: ttl}
}

// CacheKey derives the cache key for a raw payload.
func CacheKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return "miniapp:initdata:" + hex.EncodeToString(sum[:])
}

func (v *CachingVerifier) Verify(ctx context.Context, raw string) (*Session, error) {
	key := CacheKey(raw)

	// A broken cache degrades to a direct backend call.
	if cached, ok, err := v.cache.Get(ctx, key); err == nil && ok {
		var session Session
		if err := json.Unmarshal(cached, &session); err == nil {
			session.Cached = true
			return &session, nil
		}
	}

	session, err := v.next.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(session); err == nil {
		_ = v.cache.Set(ctx, key, encoded, v.ttl)
	}
	return session, nil
}

// =============================================================================
// Memory cache
// =============================================================================

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// DefaultMemoryCacheSize bounds a MemoryCache created by NewMemoryCache.
const DefaultMemoryCacheSize = 10000

// MemoryCache is a process-local Cache. Expired entries are swept on Set, and once the cache
// holds max entries the one closest to expiry is evicted.
type MemoryCache struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	max       int
	nextSweep time.Time
	now       func() time.Time
}

// NewMemoryCache creates an empty cache holding up to DefaultMemoryCacheSize entries.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheSize(DefaultMemoryCacheSize)
}

// NewMemoryCacheSize creates an empty cache holding up to max entries.
func NewMemoryCacheSize(max int) *MemoryCache {
	if max <= 0 {
		max = DefaultMemoryCacheSize
	}
	return &MemoryCache{entries: make(map[string]memoryEntry), max: max, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.max || !now.Before(c.nextSweep) {
			c.sweep(now)
		}
		if len(c.entries) >= c.max {
			c.evictSoonest()
		}
	}
	c.entries[key] = memoryEntry{
		value:     append([]byte(nil), value...),
		expiresAt: now.Add(ttl),
	}
	return nil
}

// Len returns the number of entries held, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) sweep(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.nextSweep = now.Add(time.Minute)
}

func (c *MemoryCache) evictSoonest() {
	var (
		victim  string
		soonest time.Time
		found   bool
	)
	for key, entry := range c.entries {
		if !found || entry.expiresAt.Before(soonest) {
			victim, soonest, found = key, entry.expiresAt, true
		}
	}
	if found {
		delete(c.entries, victim)
	}
}

// =============================================================================
// Redis cache
// =============================================================================

// RedisCache is a Cache shared between shell instances.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a cache on client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisCacheFromURL parses a redis:// URL and connects lazily.
func NewRedisCacheFromURL(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisCache(redis.NewClient(opts)), nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
