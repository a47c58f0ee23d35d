package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	denylistPrefix = "auth:denylist:"
	throttlePrefix = "auth:signin-failures:"
)

// RedisOptions describes how to reach the Redis server.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection with PING.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// RedisDenylist stores revoked token IDs as keys that expire with the token.
type RedisDenylist struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewRedisDenylist(rdb redis.Cmdable) *RedisDenylist {
	return &RedisDenylist{rdb: rdb, now: time.Now}
}

func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.rdb.Set(ctx, denylistPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.rdb.Exists(ctx, denylistPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// RedisThrottle counts failures with INCR on a key that expires with the window.
type RedisThrottle struct {
	rdb         redis.Cmdable
	maxAttempts int
	window      time.Duration
}

func NewRedisThrottle(rdb redis.Cmdable, maxAttempts int, window time.Duration) *RedisThrottle {
	return &RedisThrottle{rdb: rdb, maxAttempts: maxAttempts, window: window}
}

func (t *RedisThrottle) Locked(ctx context.Context, key string) (bool, error) {
	n, err := t.rdb.Get(ctx, throttlePrefix+key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read sign-in failures: %w", err)
	}
	return n >= t.maxAttempts, nil
}

func (t *RedisThrottle) RegisterFailure(ctx context.Context, key string) error {
	k := throttlePrefix + key
	n, err := t.rdb.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("failed to record sign-in failure: %w", err)
	}
	if n == 1 {
		if err := t.rdb.Expire(ctx, k, t.window).Err(); err != nil {
			return fmt.Errorf("failed to set sign-in failure window: %w", err)
		}
	}
	return nil
}

func (t *RedisThrottle) Reset(ctx context.Context, key string) error {
	if err := t.rdb.Del(ctx, throttlePrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset sign-in failures: %w", err)
	}
	return nil
}
