package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clinic/internal/dashboard/models"
	"clinic/pkg/platform/sentinel"
)

// SummaryKey is the Redis key holding the cached dashboard summary.
const SummaryKey = "clinic:dashboard:summary"

// RedisCache stores the dashboard summary as JSON with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns sentinel.ErrNotFound on a miss.
func (c *RedisCache) Get(ctx context.Context) (*models.Summary, error) {
	raw, err := c.client.Get(ctx, SummaryKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached summary: %w", err)
	}
	var summary models.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("decode cached summary: %w", err)
	}
	return &summary, nil
}

func (c *RedisCache) Set(ctx context.Context, summary *models.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return c.client.Set(ctx, SummaryKey, raw, c.ttl).Err()
}

// Invalidate drops the cached summary so the next read recomputes it.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, SummaryKey).Err()
}
