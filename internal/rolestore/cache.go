// internal/rolestore/cache.go
package rolestore

import (
	"context"
	"encoding/json"
	"time"

	"art-of-prompting/internal/common/database"
	"art-of-prompting/internal/common/logger"
	"art-of-prompting/internal/common/metrics"
)

// CachedStore is a Redis read-through cache in front of another Store.
// Redis failures are logged and fall through to the wrapped store.
type CachedStore struct {
	next   Store
	redis  *database.RedisClient
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

// NewCachedStore caches next under prefix for ttl.
func NewCachedStore(next Store, rc *database.RedisClient, ttl time.Duration, prefix string, log logger.Logger) *CachedStore {
	return &CachedStore{
		next:   next,
		redis:  rc,
		ttl:    ttl,
		prefix: prefix,
		logger: log.With(map[string]interface{}{"component": "rolestore-cache"}),
	}
}

func (c *CachedStore) roleKey(title string) string {
	return c.prefix + "role:" + title
}

func (c *CachedStore) listKey() string {
	return c.prefix + "roles"
}

// GetContext serves from Redis when possible. Not-found results are never cached.
func (c *CachedStore) GetContext(ctx context.Context, title string) (string, error) {
	key := c.roleKey(title)

	val, err := c.redis.Get(ctx, key)
	switch {
	case err == nil:
		metrics.RoleLookupsTotal.WithLabelValues("cache").Inc()
		return val, nil
	case !database.IsMiss(err):
		c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	description, err := c.next.GetContext(ctx, title)
	if err != nil {
		return "", err
	}

	if err := c.redis.Set(ctx, key, description, c.ttl); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return description, nil
}

// ListRoles caches the full title list as one JSON value.
func (c *CachedStore) ListRoles(ctx context.Context) ([]string, error) {
	key := c.listKey()

	if val, err := c.redis.Get(ctx, key); err == nil {
		var roles []string
		if jsonErr := json.Unmarshal([]byte(val), &roles); jsonErr == nil {
			return roles, nil
		}
	} else if !database.IsMiss(err) {
		c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	roles, err := c.next.ListRoles(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(roles); err == nil {
		if err := c.redis.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return roles, nil
}

// Invalidate drops every cached entry under the prefix.
func (c *CachedStore) Invalidate(ctx context.Context) (int, error) {
	return c.redis.DeleteByPrefix(ctx, c.prefix)
}
