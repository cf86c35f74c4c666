package presence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on plain Redis string keys with expiry.
type RedisStore struct {
	client    *redis.Client
	onlineTTL time.Duration
	typingTTL time.Duration
}

// NewRedisStore wraps an existing client with the configured TTLs.
func NewRedisStore(client *redis.Client, onlineTTL, typingTTL time.Duration) *RedisStore {
	return &RedisStore{
		client:    client,
		onlineTTL: onlineTTL,
		typingTTL: typingTTL,
	}
}

func onlineKey(userID string) string {
	return "user:" + userID + ":online"
}

func typingKey(userID, chatID string) string {
	return "user:" + userID + ":typing:" + chatID
}

// SetUserOnline writes the liveness key with the online TTL.
func (s *RedisStore) SetUserOnline(ctx context.Context, userID string) error {
	if err := s.client.Set(ctx, onlineKey(userID), "1", s.onlineTTL).Err(); err != nil {
		return fmt.Errorf("set online: %w", err)
	}
	return nil
}

// Heartbeat refreshes the TTL only; no rewrite, no re-broadcast.
func (s *RedisStore) Heartbeat(ctx context.Context, userID string) error {
	if err := s.client.Expire(ctx, onlineKey(userID), s.onlineTTL).Err(); err != nil {
		return fmt.Errorf("refresh online ttl: %w", err)
	}
	return nil
}

// SetUserOffline deletes the liveness key.
func (s *RedisStore) SetUserOffline(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, onlineKey(userID)).Err(); err != nil {
		return fmt.Errorf("del online: %w", err)
	}
	return nil
}

// IsUserOnline reports whether the liveness key exists.
func (s *RedisStore) IsUserOnline(ctx context.Context, userID string) (bool, error) {
	val, err := s.client.Get(ctx, onlineKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get online: %w", err)
	}
	return val == "1", nil
}

// OnlineUsers scans for live presence keys and extracts the user ids.
func (s *RedisStore) OnlineUsers(ctx context.Context) ([]string, error) {
	var users []string
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "user:*:online", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan online keys: %w", err)
		}
		for _, key := range keys {
			parts := strings.Split(key, ":")
			if len(parts) == 3 {
				users = append(users, parts[1])
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return users, nil
}

// SetUserTyping writes the typing flag with the typing TTL.
func (s *RedisStore) SetUserTyping(ctx context.Context, userID, chatID string) error {
	if err := s.client.Set(ctx, typingKey(userID, chatID), "1", s.typingTTL).Err(); err != nil {
		return fmt.Errorf("set typing: %w", err)
	}
	return nil
}

// StopUserTyping deletes the typing flag.
func (s *RedisStore) StopUserTyping(ctx context.Context, userID, chatID string) error {
	if err := s.client.Del(ctx, typingKey(userID, chatID)).Err(); err != nil {
		return fmt.Errorf("del typing: %w", err)
	}
	return nil
}

// IsUserTyping reports whether the typing flag exists.
func (s *RedisStore) IsUserTyping(ctx context.Context, userID, chatID string) (bool, error) {
	val, err := s.client.Get(ctx, typingKey(userID, chatID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get typing: %w", err)
	}
	return val == "1", nil
}
