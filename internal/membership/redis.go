package membership

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache on a Redis set per user.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing client. The client's lifecycle is
// owned by the caller.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func cacheKey(userID string) string {
	return "user:" + userID + ":rooms"
}

// IsCachedMember probes the user's room set.
func (c *RedisCache) IsCachedMember(ctx context.Context, userID, chatID string) (bool, error) {
	ok, err := c.client.SIsMember(ctx, cacheKey(userID), chatID).Result()
	if err != nil {
		return false, fmt.Errorf("sismember %s: %w", cacheKey(userID), err)
	}
	return ok, nil
}

// CacheMembership adds the chat to the user's room set.
func (c *RedisCache) CacheMembership(ctx context.Context, userID, chatID string) error {
	if err := c.client.SAdd(ctx, cacheKey(userID), chatID).Err(); err != nil {
		return fmt.Errorf("sadd %s: %w", cacheKey(userID), err)
	}
	return nil
}

// LoadMemberships enumerates the user's cached room ids.
func (c *RedisCache) LoadMemberships(ctx context.Context, userID string) ([]string, error) {
	ids, err := c.client.SMembers(ctx, cacheKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", cacheKey(userID), err)
	}
	return ids, nil
}

// RemoveCachedMembership drops the chat from the user's room set.
func (c *RedisCache) RemoveCachedMembership(ctx context.Context, userID, chatID string) error {
	if err := c.client.SRem(ctx, cacheKey(userID), chatID).Err(); err != nil {
		return fmt.Errorf("srem %s: %w", cacheKey(userID), err)
	}
	return nil
}
