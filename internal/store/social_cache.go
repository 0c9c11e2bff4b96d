package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/model"
)

// SocialCache persists social profile payloads in the store's
// social_cache table so lookups survive between runs.
type SocialCache struct {
	store Store
	ttl   time.Duration
}

// NewSocialCache wraps s with a fixed entry TTL.
func NewSocialCache(s Store, ttl time.Duration) *SocialCache {
	return &SocialCache{store: s, ttl: ttl}
}

// Get returns the cached payload, or nil on a miss or an expired entry.
func (c *SocialCache) Get(ctx context.Context, key string) (*model.SocialPayload, error) {
	data, err := c.store.GetCachedSocial(ctx, key)
	if err != nil || data == nil {
		return nil, err
	}
	var p model.SocialPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrapf(err, "store: decode social cache entry %s", key)
	}
	return &p, nil
}

// Set stores p for the configured TTL.
func (c *SocialCache) Set(ctx context.Context, key string, p *model.SocialPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "store: encode social payload")
	}
	return c.store.SetCachedSocial(ctx, key, data, c.ttl)
}
