package translate

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

// Cache stores finished translations and the monthly usage counter.
// Entries are immutable once written; a cached pair is never re-requested.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
	Usage(ctx context.Context, month string) int
	AddUsage(ctx context.Context, month string, chars int)
}

// RedisCache persists translations without expiry. Like the content cache
// tiers, storage failures degrade to a miss and are only logged.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, prefix: "folio:translate:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Printf("translate: cache get: %v", err)
		return "", false
	}
	return value, true
}

func (c *RedisCache) Set(ctx context.Context, key, value string) {
	if err := c.client.Set(ctx, c.prefix+key, value, 0).Err(); err != nil {
		log.Printf("translate: cache set: %v", err)
	}
}

func (c *RedisCache) Usage(ctx context.Context, month string) int {
	value, err := c.client.Get(ctx, c.prefix+"usage:"+month).Int()
	if err != nil && err != redis.Nil {
		log.Printf("translate: usage get: %v", err)
	}
	return value
}

func (c *RedisCache) AddUsage(ctx context.Context, month string, chars int) {
	if err := c.client.IncrBy(ctx, c.prefix+"usage:"+month, int64(chars)).Err(); err != nil {
		log.Printf("translate: usage incr: %v", err)
	}
}
