package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache implements ports.Cache on a Redis client. Namespacing maps
// (namespace, key) onto "prefix:namespace:key"; expiry is Redis-native TTL,
// so an expired entry is physically gone by the time a read could see it.
type RedisCache struct {
	r redis.Cmdable
	// optional key prefix to isolate this service's entries
	prefix string
}

// NewRedisCache creates a new Redis-backed cache.
func NewRedisCache(r redis.Cmdable, prefix string) *RedisCache {
	return &RedisCache{r: r, prefix: prefix}
}

func (c *RedisCache) namespaced(namespace, key string) string {
	if c.prefix == "" {
		return namespace + ":" + key
	}
	return c.prefix + ":" + namespace + ":" + key
}

// Get implements Cache.Get.
func (c *RedisCache) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	val, err := c.r.Get(ctx, c.namespaced(namespace, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set implements Cache.Set.
func (c *RedisCache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	return c.r.Set(ctx, c.namespaced(namespace, key), value, ttl).Err()
}

// List implements Cache.List by scanning the namespace's key pattern and
// bulk-fetching the surviving values. Keys that expire between the scan and
// the fetch are simply absent from the result.
func (c *RedisCache) List(ctx context.Context, namespace string) ([][]byte, error) {
	pattern := c.namespaced(namespace, "*")

	var keys []string
	var cursor uint64
	for {
		batch, next, err := c.r.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := c.r.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, []byte(s))
		}
	}
	return out, nil
}
