// internal/rolestore/backend.go
package rolestore

import (
	"context"
	"errors"

	"art-of-prompting/internal/common/config"
	"art-of-prompting/internal/common/database"
	apperrors "art-of-prompting/internal/common/errors"
	"art-of-prompting/internal/common/logger"
)

// Backend bundles the SQL store with the optional Redis cache in front of it.
type Backend struct {
	SQL   *database.SQLClient
	Store *SQLStore
	Redis *database.RedisClient
	Cache *CachedStore
}

// OpenBackend connects to the configured database, creates the role table if
// needed and, when cache.enabled is set, wraps the store with Redis. An
// unreachable Redis is logged, not fatal.
func OpenBackend(ctx context.Context, cfg *config.Config, log logger.Logger) (*Backend, error) {
	client, err := database.NewSQL(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, apperrors.NewDatabaseConnectionFailedError(err)
	}

	store, err := NewSQLStore(client, TableFromConfig(cfg.Database), log)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	b := &Backend{SQL: client, Store: store}
	if !cfg.Cache.Enabled {
		return b, nil
	}

	rc, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := rc.Ping(ctx); err != nil {
		log.Warn("redis unreachable, lookups will fall through to the database", map[string]interface{}{
			"address": cfg.Database.Redis.Address,
			"error":   err.Error(),
		})
	}
	b.Redis = rc
	b.Cache = NewCachedStore(store, rc, config.GetDuration(cfg.Cache.TTL), cfg.Cache.KeyPrefix, log)
	return b, nil
}

// Reader returns the Store the server should query.
func (b *Backend) Reader() Store {
	if b.Cache != nil {
		return b.Cache
	}
	return b.Store
}

// Invalidate flushes the cache, if any.
func (b *Backend) Invalidate(ctx context.Context) (int, error) {
	if b.Cache == nil {
		return 0, nil
	}
	return b.Cache.Invalidate(ctx)
}

func (b *Backend) Close() error {
	var errs []error
	if b.Redis != nil {
		errs = append(errs, b.Redis.Close())
	}
	if b.SQL != nil {
		errs = append(errs, b.SQL.Close())
	}
	return errors.Join(errs...)
}
