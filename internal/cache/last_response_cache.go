package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"avatar-chat/internal/model"
)

// setLastScript replaces the cached row only when the incoming one sorts after
// it, so writers finishing out of order cannot roll the entry back.
var setLastScript = redisv9.NewScript(`
local current = redis.call('HGET', KEYS[1], 'order')
if current and current >= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'order', ARGV[1], 'payload', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// LastResponseCache keeps the newest history row per user so "last response"
// lookups can skip the database. The database stays authoritative: a miss or
// a redis error falls through to it.
type LastResponseCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewLastResponseCache(client *redisv9.Client, ttl time.Duration) *LastResponseCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &LastResponseCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *LastResponseCache) GetLast(ctx context.Context, userID uint) (*model.SearchHistory, bool, error) {
	raw, err := c.client.HGet(ctx, lastResponseKey(userID), "payload").Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get last response failed: %w", err)
	}

	var entry model.SearchHistory
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached last response failed: %w", err)
	}
	return &entry, true, nil
}

// SetLast stores entry unless the cache already holds the same or a newer row
// for the user. Rows are ordered by (CreatedAt, ID), matching the database.
func (c *LastResponseCache) SetLast(ctx context.Context, entry model.SearchHistory) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal last response failed: %w", err)
	}
	err = setLastScript.Run(ctx, c.client,
		[]string{lastResponseKey(entry.UserID)},
		orderKey(entry), payload, c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("redis set last response failed: %w", err)
	}
	return nil
}

func (c *LastResponseCache) Invalidate(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, lastResponseKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete last response failed: %w", err)
	}
	return nil
}

func lastResponseKey(userID uint) string {
	return fmt.Sprintf("chat:last_response:%d", userID)
}

// orderKey is fixed width so byte order equals (CreatedAt, ID) order.
// Timestamps are cut to milliseconds, the coarsest precision a supported
// database keeps, so a row read back from storage sorts like the written one.
func orderKey(entry model.SearchHistory) string {
	millis := entry.CreatedAt.UnixMilli()
	if millis < 0 {
		millis = 0
	}
	return fmt.Sprintf("%020d:%020d", millis, entry.ID)
}
