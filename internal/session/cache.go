package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sentitrack:brandctx:"

// Cache stores brand contexts keyed by user ID.
type Cache interface {
	Get(ctx context.Context, userID string) (BrandContext, bool, error)
	Set(ctx context.Context, userID string, bc BrandContext) error
	Delete(ctx context.Context, userID string) error
}

// RedisCache keeps brand contexts in redis with a TTL
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, userID string) (BrandContext, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return BrandContext{}, false, nil
	}
	if err != nil {
		return BrandContext{}, false, err
	}

	var bc BrandContext
	if err := json.Unmarshal(raw, &bc); err != nil {
		return BrandContext{}, false, fmt.Errorf("corrupt brand context for %s: %w", userID, err)
	}
	return bc, true, nil
}

func (c *RedisCache) Set(ctx context.Context, userID string, bc BrandContext) error {
	raw, err := json.Marshal(bc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+userID, raw, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, keyPrefix+userID).Err()
}

// Close releases the redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
