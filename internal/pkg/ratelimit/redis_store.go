package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares fixed-window counters between processes
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by INCR + PEXPIRE
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Connect builds a Redis client from a redis:// URL or a host:port address
func Connect(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// Hit implements Store.
// INCR and PTTL run in one transaction; any hit that finds the key without
// a TTL sets it, so a failed PEXPIRE is repaired by the next hit.
func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (int, error) {
	redisKey := "ratelimit:" + key

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, redisKey)
		ttl = p.PTTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return 0, err
	}

	count := int(incr.Val())
	if ttl.Val() < 0 {
		if err := s.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}
