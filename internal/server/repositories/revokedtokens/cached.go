package revokedtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/paygateauth/internal/cryptox"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces revocation keys in Redis.
const DefaultKeyPrefix = "paygate:revoked:"

// CachedRepository is a write-through Redis cache in front of another
// Repository. Redis only ever answers "revoked"; a miss or a Redis failure
// falls through to the wrapped store, which stays authoritative.
type CachedRepository struct {
	next   Repository
	rdb    redis.Cmdable
	prefix string
}

// NewCachedRepository wraps next with a cache held in rdb.
func NewCachedRepository(next Repository, rdb redis.Cmdable, prefix string) *CachedRepository {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &CachedRepository{next: next, rdb: rdb, prefix: prefix}
}

// key digests the token so raw access tokens never reach Redis.
func (c *CachedRepository) key(token string) string {
	return c.prefix + cryptox.HashToken(token)
}

func (c *CachedRepository) Add(ctx context.Context, token string, expiresAt time.Time) error {
	if err := c.next.Add(ctx, token, expiresAt); err != nil {
		return err
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	// best effort: the wrapped store already holds the entry
	_ = c.rdb.Set(ctx, c.key(token), 1, ttl).Err()
	return nil
}

func (c *CachedRepository) Exists(ctx context.Context, token string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(token)).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	return c.next.Exists(ctx, token)
}

func (c *CachedRepository) PruneExpired(ctx context.Context) (int64, error) {
	// cached keys expire on their own
	return c.next.PruneExpired(ctx)
}
