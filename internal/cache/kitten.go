package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cyberkittens/kittens/internal/model"
)

const (
	// DefaultKittenTTL is the TTL for cached kitten data.
	DefaultKittenTTL = 1 * time.Hour

	// NegativeCacheTTL is the TTL for not-found markers.
	NegativeCacheTTL = 1 * time.Minute
)

// fillKittenScript writes the kitten hash only while no not-found marker
// exists. KEYS: hash, marker. ARGV: ttl seconds, then field/value pairs.
var fillKittenScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV, 2))
redis.call("EXPIRE", KEYS[1], ARGV[1])
return 1
`)

// GetKitten retrieves a kitten from cache by ID.
// Returns ErrCacheMiss if not found or if the entry is corrupted.
func (c *Cache) GetKitten(ctx context.Context, id int64) (*model.Kitten, error) {
	var cached model.CachedKitten
	cmd := c.client.HGetAll(ctx, c.kittenKey(id))
	if err := cmd.Err(); err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(cmd.Val()) == 0 {
		return nil, ErrCacheMiss
	}
	if err := cmd.Scan(&cached); err != nil {
		return nil, ErrCacheMiss
	}

	kitten, ok := cached.ToKitten(id)
	if !ok {
		return nil, ErrCacheMiss
	}
	return kitten, nil
}

// SetKitten stores a kitten and clears any not-found marker for its ID.
// Used when the kitten is known to exist, i.e. right after it was created.
func (c *Cache) SetKitten(ctx context.Context, kitten *model.Kitten) error {
	key := c.kittenKey(kitten.ID)

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, *kitten.ToCachedKitten())
		pipe.Expire(ctx, key, DefaultKittenTTL)
		pipe.Del(ctx, c.kittenGoneKey(kitten.ID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to cache kitten: %w", err)
	}
	return nil
}

// FillKitten caches a kitten read from the store unless a not-found marker
// exists for its ID. Reports whether the entry was written.
func (c *Cache) FillKitten(ctx context.Context, kitten *model.Kitten) (bool, error) {
	cached := kitten.ToCachedKitten()
	args := []any{
		int(DefaultKittenTTL / time.Second),
		"name", cached.Name,
		"age", cached.Age,
		"color", cached.Color,
		"owner_id", cached.OwnerID,
		"created_at", cached.CreatedAt,
		"updated_at", cached.UpdatedAt,
	}

	keys := []string{c.kittenKey(kitten.ID), c.kittenGoneKey(kitten.ID)}
	written, err := fillKittenScript.Run(ctx, c.client, keys, args...).Int()
	if err != nil {
		return false, fmt.Errorf("failed to fill kitten cache: %w", err)
	}
	return written == 1, nil
}

// DeleteKitten evicts a kitten and marks its ID as not found, so reads that
// loaded the row before the delete cannot refill the entry.
func (c *Cache) DeleteKitten(ctx context.Context, id int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.kittenKey(id))
		pipe.SetEx(ctx, c.kittenGoneKey(id), "", NegativeCacheTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete kitten from cache: %w", err)
	}
	return nil
}

// IsNegativelyCached checks if a kitten ID is marked as not found.
func (c *Cache) IsNegativelyCached(ctx context.Context, id int64) (bool, error) {
	exists, err := c.client.Exists(ctx, c.kittenGoneKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}
	return exists > 0, nil
}

// SetNegativeCache marks a kitten ID as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id int64) error {
	if err := c.client.SetEx(ctx, c.kittenGoneKey(id), "", NegativeCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}
	return nil
}
