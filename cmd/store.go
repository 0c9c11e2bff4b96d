package main

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/db"
	"github.com/sells-group/enrich-cli/internal/social"
	"github.com/sells-group/enrich-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.SQLitePath
		if dsn == "" {
			dsn = "enrich.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, db.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initSocialCache builds the configured social profile cache. The returned
// close func releases any connection the cache holds.
func initSocialCache(ctx context.Context, st store.Store) (social.Cache, func(), error) {
	ttl := time.Duration(cfg.Social.CacheTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = social.DefaultTTL
	}

	switch cfg.Social.CacheBackend {
	case "", "memory":
		return social.NewMemoryCache(ttl, nil), func() {}, nil
	case "store":
		if st == nil {
			return nil, nil, eris.New("social cache: store backend needs a store")
		}
		return store.NewSocialCache(st, ttl), func() {}, nil
	case "redis":
		opts, err := redis.ParseURL(cfg.Social.RedisURL)
		if err != nil {
			return nil, nil, eris.Wrap(err, "social cache: parse redis url")
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, eris.Wrap(err, "social cache: ping redis")
		}
		return social.NewRedisCache(rdb, ttl), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, eris.Errorf("unsupported social cache backend: %s", cfg.Social.CacheBackend)
	}
}
