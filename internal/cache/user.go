package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cyberkittens/kittens/internal/model"
)

// DefaultUserTTL bounds how long a resolved user may be served from cache.
const DefaultUserTTL = 5 * time.Minute

// CachedUser represents a resolved user stored in Redis.
// The password hash is never cached.
type CachedUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// GetUser retrieves a cached user by ID.
// Returns ErrCacheMiss if absent or corrupted.
func (c *Cache) GetUser(ctx context.Context, id string) (*model.User, error) {
	data, err := c.client.Get(ctx, c.userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get user failed: %w", err)
	}

	var cached CachedUser
	if err := json.Unmarshal(data, &cached); err != nil || cached.ID != id {
		// Corrupted cache entry - treat as miss
		return nil, ErrCacheMiss
	}

	return &model.User{
		ID:        cached.ID,
		Email:     cached.Email,
		CreatedAt: cached.CreatedAt,
	}, nil
}

// SetUser caches a resolved user for ttl. A non-positive ttl uses DefaultUserTTL.
func (c *Cache) SetUser(ctx context.Context, user *model.User, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultUserTTL
	}

	data, err := json.Marshal(CachedUser{
		ID:        user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return c.client.Set(ctx, c.userKey(user.ID), data, ttl).Err()
}
