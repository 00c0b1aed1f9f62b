//go:build integration
// +build integration

// Integration tests for order persistence and idempotency.
// Run with: go test -tags=integration ./internal/orders/... -v
//
// Required environment variables:
//
//	DATABASE_URL - Postgres DSN of a disposable database
//	REDIS_ADDR   - address of a disposable Redis instance
package orders

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"storefront-pricing/internal/model"
)

func TestIntegration_PostgresRepository(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	repo := NewPostgresRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	order := model.Order{
		ID:     uuid.NewString(),
		CartID: "cart-it",
		Lines: []model.OrderLine{
			{ProductID: "P1", VariantID: "L", Quantity: 2, UnitPrice: 50, LineTotal: 100},
		},
		AppliedOffers: []model.AppliedOffer{
			{OfferID: "o1", Title: "Pairs", Type: "bogo", Discount: 50, Message: "Pairs: buy one get one free",
				FreeItems: []model.FreeItem{{ProductID: "P1", VariantID: "L", Quantity: 1}}},
		},
		Subtotal:        100,
		BaseDeliveryFee: 30,
		DeliveryFee:     30,
		TotalDiscount:   50,
		Total:           80,
		Savings:         50,
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := repo.Save(ctx, order, uuid.NewString()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Total != 80 || len(got.Lines) != 1 || len(got.AppliedOffers) != 1 {
		t.Errorf("order = %+v", got)
	}
	if fi := got.AppliedOffers[0].FreeItems; len(fi) != 1 || fi[0].Quantity != 1 {
		t.Errorf("free items = %+v", fi)
	}
	if !got.CreatedAt.Equal(order.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, order.CreatedAt)
	}

	if _, err := repo.Get(ctx, "missing"); err != ErrOrderNotFound {
		t.Errorf("Get(missing) error = %v, want ErrOrderNotFound", err)
	}
}

func TestIntegration_RedisIdempotency(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test: REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	keys := NewRedisIdempotency(rdb, time.Minute)
	key := uuid.NewString()
	defer keys.Release(ctx, key)

	id, claimed, err := keys.Claim(ctx, key, "ord-a")
	if err != nil || !claimed || id != "ord-a" {
		t.Fatalf("first Claim() = %q, %v, %v", id, claimed, err)
	}

	id, claimed, err = keys.Claim(ctx, key, "ord-b")
	if err != nil || claimed || id != "ord-a" {
		t.Errorf("second Claim() = %q, %v, %v; want ord-a, false", id, claimed, err)
	}

	if err := keys.Release(ctx, key); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, claimed, _ := keys.Claim(ctx, key, "ord-c"); !claimed {
		t.Error("released key should be claimable")
	}
}
