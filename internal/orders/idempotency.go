package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisIdempotency stores idempotency keys with SETNX.
type RedisIdempotency struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisIdempotency creates a key store. Keys expire after ttl.
func NewRedisIdempotency(rdb *redis.Client, ttl time.Duration) *RedisIdempotency {
	return &RedisIdempotency{rdb: rdb, ttl: ttl}
}

func (s *RedisIdempotency) key(k string) string {
	return "idem:order:" + k
}

// Claim implements Idempotency.
func (s *RedisIdempotency) Claim(ctx context.Context, key, orderID string) (string, bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.key(key), orderID, s.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return orderID, true, nil
	}

	existing, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		ok, err = s.rdb.SetNX(ctx, s.key(key), orderID, s.ttl).Result()
		if err != nil {
			return "", false, err
		}
		if ok {
			return orderID, true, nil
		}
		return "", false, fmt.Errorf("idempotency key %s is contended", key)
	}
	if err != nil {
		return "", false, err
	}
	return existing, false, nil
}

// Release implements Idempotency.
func (s *RedisIdempotency) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}
