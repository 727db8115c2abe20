package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"poi-route-service/internal/domain"
	"poi-route-service/internal/platform/obs"
	"poi-route-service/internal/ports"
)

const pathKeyPrefix = "poi-route:path"

// RedisPathCache shares shortest-path segments between service instances.
// Keys expire after TTL; TTL <= 0 stores them without expiry.
type RedisPathCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPathCache(client *redis.Client, ttl time.Duration) *RedisPathCache {
	return &RedisPathCache{client: client, ttl: ttl}
}

var _ ports.PathCache = (*RedisPathCache)(nil)

func (c *RedisPathCache) key(from, to int64) string {
	return fmt.Sprintf("%s:%d:%d", pathKeyPrefix, from, to)
}

func (c *RedisPathCache) Get(ctx context.Context, from, to int64) (_ domain.RouteSegment, _ bool, err error) {
	defer obs.Time(ctx, "path.cache.Get")(&err)

	data, err := c.client.Get(ctx, c.key(from, to)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RouteSegment{}, false, nil
	}
	if err != nil {
		return domain.RouteSegment{}, false, fmt.Errorf("get path cache %d -> %d: redis GET: %w", from, to, err)
	}

	seg, err := decodeSegment(data)
	if err != nil {
		return domain.RouteSegment{}, false, fmt.Errorf("get path cache %d -> %d: %w", from, to, err)
	}
	return seg, true, nil
}

func (c *RedisPathCache) Put(ctx context.Context, from, to int64, seg domain.RouteSegment) error {
	b, err := encodeSegment(seg)
	if err != nil {
		return fmt.Errorf("insert path cache %d -> %d: %w", from, to, err)
	}
	if err := checkKey(from, to, seg); err != nil {
		return fmt.Errorf("insert path cache: %w", err)
	}

	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, c.key(from, to), b, ttl).Err(); err != nil {
		return fmt.Errorf("insert path cache %d -> %d: redis SET: %w", from, to, err)
	}
	return nil
}

// Ping checks the connection at startup.
func (c *RedisPathCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis path cache: ping: %w", err)
	}
	return nil
}
