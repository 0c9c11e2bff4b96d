package social

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// DefaultTTL is how long a resolved payload stays fresh.
const DefaultTTL = 24 * time.Hour

// Cache stores resolved payloads by identity key. A miss returns (nil, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*model.SocialPayload, error)
	Set(ctx context.Context, key string, p *model.SocialPayload) error
}

type memoryEntry struct {
	storedAt time.Time
	payload  *model.SocialPayload
}

// MemoryCache is a mutex-guarded in-process cache. Hits return the stored
// pointer itself.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryCache creates an in-memory cache. A non-positive ttl selects
// DefaultTTL; a nil clock selects time.Now.
func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{ttl: ttl, now: now, entries: make(map[string]memoryEntry)}
}

// Get returns the payload for key if it was stored within the TTL.
func (c *MemoryCache) Get(_ context.Context, key string) (*model.SocialPayload, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.storedAt.Equal(e.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, nil
	}
	return e.payload, nil
}

// Set stores p under key, replacing any previous entry.
func (c *MemoryCache) Set(_ context.Context, key string, p *model.SocialPayload) error {
	c.mu.Lock()
	c.entries[key] = memoryEntry{storedAt: c.now(), payload: p}
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, fresh or not.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisCache stores payloads as JSON with a server-side expiry so several
// processes share lookups.
type RedisCache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a Redis-backed cache. A non-positive ttl selects
// DefaultTTL.
func NewRedisCache(rdb redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: "enrich:"}
}

// Get returns the cached payload, or nil when absent or expired.
func (c *RedisCache) Get(ctx context.Context, key string) (*model.SocialPayload, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "social: redis get")
	}
	p := model.NewSocialPayload()
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, eris.Wrap(err, "social: decode cached payload")
	}
	return p, nil
}

// Set stores p under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, p *model.SocialPayload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "social: encode payload")
	}
	if err := c.rdb.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return eris.Wrap(err, "social: redis set")
	}
	return nil
}
