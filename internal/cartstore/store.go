// Package cartstore keeps shopping carts in Redis.
//
// Each cart is a hash at cart:{id}. Fields are reconcile keys (product or
// product:variant) and values are quantities. Every write refreshes the TTL.
package cartstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront-pricing/internal/reconcile"
)

const maxReplaceAttempts = 3

// Store reads and writes carts.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a store. A ttl of zero keeps carts forever.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Key returns the Redis key holding a cart.
func Key(cartID string) string {
	return "cart:" + cartID
}

// Lines returns the cart lines ordered by key. An unknown cart has no lines.
func (s *Store) Lines(ctx context.Context, cartID string) ([]reconcile.Line, error) {
	return readLines(ctx, s.rdb, Key(cartID))
}

// Replace makes the stored cart equal to desired and returns the applied diff.
// The read and the write run under WATCH so concurrent replaces do not interleave.
func (s *Store) Replace(ctx context.Context, cartID string, desired []reconcile.Line) (*reconcile.LineDiff, error) {
	key := Key(cartID)
	var diff *reconcile.LineDiff

	txf := func(tx *redis.Tx) error {
		current, err := readLines(ctx, tx, key)
		if err != nil {
			return err
		}
		diff = reconcile.DiffLines(current, desired)
		if diff.IsEmpty() && s.ttl <= 0 {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, l := range diff.ToRemove {
				pipe.HDel(ctx, key, l.Key())
			}
			for _, l := range diff.ToUpdate {
				pipe.HSet(ctx, key, l.Key(), l.Quantity)
			}
			for _, l := range diff.ToAdd {
				pipe.HSet(ctx, key, l.Key(), l.Quantity)
			}
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxReplaceAttempts; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to replace cart %s: %w", cartID, err)
		}
		return diff, nil
	}
	return nil, fmt.Errorf("failed to replace cart %s: concurrent updates", cartID)
}

// Clear deletes the cart.
func (s *Store) Clear(ctx context.Context, cartID string) error {
	if err := s.rdb.Del(ctx, Key(cartID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart %s: %w", cartID, err)
	}
	return nil
}

// hashReader is satisfied by both *redis.Client and *redis.Tx.
type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func readLines(ctx context.Context, c hashReader, key string) ([]reconcile.Line, error) {
	fields, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return parseLines(fields)
}

// parseLines converts hash fields to lines, sorted by key.
func parseLines(fields map[string]string) ([]reconcile.Line, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]reconcile.Line, 0, len(keys))
	for _, k := range keys {
		qty, err := strconv.Atoi(fields[k])
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q for %s: %w", fields[k], k, err)
		}
		productID, variantID := reconcile.ParseKey(k)
		lines = append(lines, reconcile.Line{ProductID: productID, VariantID: variantID, Quantity: qty})
	}
	return lines, nil
}
