package businessflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"github.com/redis/go-redis/v9"
)

// LinkCache caches resolved short links by public identifier on the
// redirect hot path. It is a read-through optimization only: counting
// always goes to the database, and a nil client disables caching
// entirely. Policy (active/expiry) is re-evaluated on every hit, so a
// cached record never extends a link's lifetime.
type LinkCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewLinkCache(client *redis.Client, prefix string, ttl time.Duration) *LinkCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LinkCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *LinkCache) key(code string) string {
	return c.prefix + "link:" + code
}

// Get returns the cached link for code, or nil on miss/disabled/error
func (c *LinkCache) Get(ctx context.Context, code string) *models.ShortLink {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, c.key(code)).Bytes()
	if err != nil {
		return nil
	}
	var link models.ShortLink
	if err := json.Unmarshal(raw, &link); err != nil {
		return nil
	}
	return &link
}

// Set stores the link under its public code, best effort
func (c *LinkCache) Set(ctx context.Context, link *models.ShortLink) {
	if c == nil || c.client == nil || link == nil {
		return
	}
	raw, err := json.Marshal(link)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(link.PublicCode()), raw, c.ttl).Err()
}

// Invalidate drops the given public identifiers. Update and delete
// paths call this with both the generated code and the custom slug so a
// stale mapping can never outlive the record.
func (c *LinkCache) Invalidate(ctx context.Context, codes ...string) {
	if c == nil || c.client == nil || len(codes) == 0 {
		return
	}
	keys := make([]string, 0, len(codes))
	for _, code := range codes {
		if code != "" {
			keys = append(keys, c.key(code))
		}
	}
	if len(keys) > 0 {
		_ = c.client.Del(ctx, keys...).Err()
	}
}
