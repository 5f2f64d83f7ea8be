package redis

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var ctx = context.Background()

// RedisClient wraps the redis connection used for the inbound-message
// dedup guard and other short-lived keys.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient() *RedisClient {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password by default
		DB:       0,  // use default DB
	})
	return &RedisClient{client: client}
}

// Ping checks connectivity, used by the health checker
func (r *RedisClient) Ping() error {
	return r.client.Ping(ctx).Err()
}

// FirstSeen claims a key atomically. It returns true the first time a key
// is seen within the TTL window and false for every repeat, which makes it
// the fast-path duplicate check for gateway message IDs. Errors count as
// first-seen so a redis outage degrades to the durable database check.
func (r *RedisClient) FirstSeen(key string, ttl time.Duration) bool {
	ok, err := r.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

func (r *RedisClient) Set(key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *RedisClient) Get(key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *RedisClient) Del(key string) error {
	return r.client.Del(ctx, key).Err()
}
