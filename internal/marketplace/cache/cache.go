package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	referenceKeyPrefix = "mkt:ref:" // mkt:ref:{countries|categories}
	projectKeyPrefix   = "mkt:project:"
)

// ReferenceCache stores slow-moving marketplace lookups in Redis.
type ReferenceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReferenceCache(client *redis.Client, ttl time.Duration) *ReferenceCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ReferenceCache{client: client, ttl: ttl}
}

// GetList returns the cached list under name; ok is false on a miss.
func (c *ReferenceCache) GetList(ctx context.Context, name string) ([]string, bool, error) {
	data, err := c.client.Get(ctx, referenceKeyPrefix+name).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", name, err)
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		// corrupt entry: treat as a miss so it gets rewritten
		return nil, false, nil
	}
	return out, true, nil
}

func (c *ReferenceCache) SetList(ctx context.Context, name string, values []string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := c.client.Set(ctx, referenceKeyPrefix+name, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

// GetJSON and SetJSON cache arbitrary documents, used for project detail with
// a caller-chosen TTL.
func (c *ReferenceCache) GetJSON(ctx context.Context, key string, out interface{}) (bool, error) {
	data, err := c.client.Get(ctx, projectKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *ReferenceCache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.client.Set(ctx, projectKeyPrefix+key, data, ttl).Err()
}
