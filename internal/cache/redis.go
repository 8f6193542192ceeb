// Package cache provides the Redis cache for resolved users and kittens.
//
// Every key lives under one namespace:
//
//	<ns>:user:<id>         JSON-encoded resolved user, no password hash
//	<ns>:kitten:<id>       hash of kitten fields
//	<ns>:kitten:<id>:gone  not-found marker for unknown or deleted kittens
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is absent or its entry is unusable.
var ErrCacheMiss = errors.New("cache miss")

// Options tunes the cache. Zero fields take the defaults.
type Options struct {
	// Namespace prefixes every key. Default: "kittens".
	Namespace string
	// PoolSize is the Redis connection pool size. Default: 10.
	PoolSize int
}

const (
	defaultNamespace = "kittens"
	defaultPoolSize  = 10
)

func (o Options) withDefaults() Options {
	o.Namespace = strings.Trim(o.Namespace, ":")
	if o.Namespace == "" {
		o.Namespace = defaultNamespace
	}
	if o.PoolSize <= 0 {
		o.PoolSize = defaultPoolSize
	}
	return o
}

// Cache is the Redis-backed user and kitten cache.
type Cache struct {
	client    *redis.Client
	namespace string
}

// New connects to redisURL and verifies the connection before returning.
func New(ctx context.Context, redisURL string, opts Options) (*Cache, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts = opts.withDefaults()
	redisOpts.PoolSize = opts.PoolSize
	redisOpts.MinIdleConns = max(1, opts.PoolSize/5)

	c := &Cache{client: redis.NewClient(redisOpts), namespace: opts.Namespace}
	if err := c.Ping(ctx); err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return c, nil
}

// Ping reports whether Redis answers; it backs /readyz.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) key(parts ...string) string {
	return c.namespace + ":" + strings.Join(parts, ":")
}

func (c *Cache) userKey(id string) string {
	return c.key("user", id)
}

func (c *Cache) kittenKey(id int64) string {
	return c.key("kitten", strconv.FormatInt(id, 10))
}

func (c *Cache) kittenGoneKey(id int64) string {
	return c.key("kitten", strconv.FormatInt(id, 10), "gone")
}

// purge deletes every key under the namespace. Used by integration tests.
func (c *Cache) purge(ctx context.Context) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.key("*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan namespace: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
