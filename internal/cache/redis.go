package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the persistent cache tier. Storage-layer failures are never
// surfaced to callers: reads degrade to a miss, writes to a no-op, both
// logged. Entries carry their own storedAt/maxAge so validity matches the
// in-memory tier even if a key outlives its Redis TTL.
type Redis struct {
	client *redis.Client
	prefix string
}

type redisEntry struct {
	Data     json.RawMessage `json:"data"`
	StoredAt int64           `json:"storedAt"` // epoch ms
	MaxAgeMS int64           `json:"maxAgeMs"`
}

func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client, prefix: "folio:cache:"}, nil
}

func NewRedisWithClient(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "folio:cache:"}
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache: redis get %s: %v", key, err)
		return nil, false
	}

	var entry redisEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		log.Printf("cache: corrupt entry %s: %v", key, err)
		r.Delete(ctx, key)
		return nil, false
	}

	age := time.Now().UnixMilli() - entry.StoredAt
	if age >= entry.MaxAgeMS {
		r.Delete(ctx, key)
		return nil, false
	}
	return entry.Data, true
}

func (r *Redis) Set(ctx context.Context, key string, data []byte, maxAge time.Duration) {
	entry := redisEntry{
		Data:     data,
		StoredAt: time.Now().UnixMilli(),
		MaxAgeMS: maxAge.Milliseconds(),
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		log.Printf("cache: marshal entry %s: %v", key, err)
		return
	}
	if err := r.client.Set(ctx, r.key(key), raw, maxAge).Err(); err != nil {
		log.Printf("cache: redis set %s: %v", key, err)
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		log.Printf("cache: redis del %s: %v", key, err)
	}
}

func (r *Redis) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("cache: redis del %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: redis scan: %v", err)
	}
}

// CleanExpired sweeps entries whose embedded maxAge has passed but whose
// Redis TTL has not fired. Best effort, run once at startup; Get already
// enforces validity.
func (r *Redis) CleanExpired(ctx context.Context) {
	now := time.Now().UnixMilli()
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		raw, err := r.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var entry redisEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil || now-entry.StoredAt >= entry.MaxAgeMS {
			_ = r.client.Del(ctx, iter.Val()).Err()
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: clean expired: %v", err)
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Client() *redis.Client {
	return r.client
}

func (r *Redis) Close() error {
	return r.client.Close()
}
