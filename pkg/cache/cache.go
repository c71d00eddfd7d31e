// Package cache keeps venue catalog responses in Redis so repeated
// get_data calls do not reach the venue host.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ssargent/vifgate/pkg/config"
)

const (
	DefaultTTL = 5 * time.Minute
	keyPrefix  = "vifgate:catalog:"
)

// Client is the subset of redis commands the cache uses. *redis.Client
// satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewRedisClient connects to the configured server and pings it.
func NewRedisClient(ctx context.Context, cfg config.Cache) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Catalog caches catalog response text by site and detail level. A nil
// *Catalog, or one without a client, never hits and never stores.
type Catalog struct {
	rdb    Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalog returns a catalog cache. ttl <= 0 means DefaultTTL; a nil
// logger discards Redis failures.
func NewCatalog(rdb Client, ttl time.Duration, logger *zap.Logger) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *Catalog) enabled() bool { return c != nil && c.rdb != nil }

// Key is the redis key for a site and detail level.
func Key(site string, detail int) string {
	return fmt.Sprintf("%s%s:%d", keyPrefix, site, detail)
}

// Get returns the cached response text.
func (c *Catalog) Get(ctx context.Context, site string, detail int) (string, bool, error) {
	if !c.enabled() {
		return "", false, nil
	}
	text, err := c.rdb.Get(ctx, Key(site, detail)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// Put stores response text for the configured TTL.
func (c *Catalog) Put(ctx context.Context, site string, detail int, text string) error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Set(ctx, Key(site, detail), text, c.ttl).Err()
}

// Invalidate drops the cached entry.
func (c *Catalog) Invalidate(ctx context.Context, site string, detail int) error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Del(ctx, Key(site, detail)).Err()
}

// Fetch returns the cached text when present. Otherwise it calls load and
// caches the result. Cache read and write failures are logged and fall
// through to load; only load errors are returned. hit reports whether
// load was skipped.
func (c *Catalog) Fetch(ctx context.Context, site string, detail int, load func(context.Context) (string, error)) (text string, hit bool, err error) {
	cached, ok, gerr := c.Get(ctx, site, detail)
	if gerr != nil {
		c.logger.Warn("catalog cache read failed", zap.String("key", Key(site, detail)), zap.Error(gerr))
	} else if ok {
		return cached, true, nil
	}

	text, err = load(ctx)
	if err != nil {
		return "", false, err
	}
	if perr := c.Put(ctx, site, detail, text); perr != nil {
		c.logger.Warn("catalog cache write failed", zap.String("key", Key(site, detail)), zap.Error(perr))
	}
	return text, false, nil
}
