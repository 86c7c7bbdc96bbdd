package occupancy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lendmark/models"

	"github.com/go-redis/redis/v8"
)

// Cache stores computed occupancy snapshots per date.
type Cache interface {
	Get(ctx context.Context, date string) ([]models.BuildingOccupancy, bool, error)
	Set(ctx context.Context, date string, snapshot []models.BuildingOccupancy) error
}

// RedisCache keeps snapshots as JSON strings that expire after ttl.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache constructs a RedisCache.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(date string) string { return "occupancy:" + date }

func (c *RedisCache) Get(ctx context.Context, date string) ([]models.BuildingOccupancy, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error reading occupancy cache: %w", err)
	}
	var snapshot []models.BuildingOccupancy
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, false, fmt.Errorf("error decoding occupancy cache: %w", err)
	}
	return snapshot, true, nil
}

func (c *RedisCache) Set(ctx context.Context, date string, snapshot []models.BuildingOccupancy) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, cacheKey(date), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("error writing occupancy cache: %w", err)
	}
	return nil
}
