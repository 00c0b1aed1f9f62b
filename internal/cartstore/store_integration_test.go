//go:build integration
// +build integration

// Integration tests for the Redis cart store.
// Run with: go test -tags=integration ./internal/cartstore/... -v
//
// Required environment variables:
//
//	REDIS_ADDR - address of a disposable Redis instance (e.g., localhost:6379)
package cartstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"storefront-pricing/internal/reconcile"
)

func newTestStore(t *testing.T) (*Store, *redis.Client) {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test: REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb, time.Hour), rdb
}

func TestIntegration_ReplaceAndRead(t *testing.T) {
	store, rdb := newTestStore(t)
	ctx := context.Background()
	cartID := uuid.NewString()
	t.Cleanup(func() { store.Clear(ctx, cartID) })

	diff, err := store.Replace(ctx, cartID, []reconcile.Line{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "P2", VariantID: "L", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if len(diff.ToAdd) != 2 {
		t.Errorf("ToAdd = %d, want 2", len(diff.ToAdd))
	}

	diff, err = store.Replace(ctx, cartID, []reconcile.Line{
		{ProductID: "P1", Quantity: 5},
	})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if len(diff.ToUpdate) != 1 || len(diff.ToRemove) != 1 {
		t.Errorf("diff = %+v, want one update and one remove", diff)
	}

	lines, err := store.Lines(ctx, cartID)
	if err != nil {
		t.Fatalf("Lines() error = %v", err)
	}
	if len(lines) != 1 || lines[0].ProductID != "P1" || lines[0].Quantity != 5 {
		t.Errorf("lines = %+v, want P1 x5", lines)
	}

	ttl, err := rdb.TTL(ctx, Key(cartID)).Result()
	if err != nil || ttl <= 0 {
		t.Errorf("TTL = %v, %v; want positive", ttl, err)
	}
}

func TestIntegration_ClearAndUnknownCart(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	cartID := uuid.NewString()

	if _, err := store.Replace(ctx, cartID, []reconcile.Line{{ProductID: "P1", Quantity: 1}}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if err := store.Clear(ctx, cartID); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	lines, err := store.Lines(ctx, cartID)
	if err != nil {
		t.Fatalf("Lines() error = %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("lines = %+v, want none", lines)
	}
}
