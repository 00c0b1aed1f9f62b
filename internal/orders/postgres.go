package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"storefront-pricing/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id TEXT PRIMARY KEY,
	cart_id TEXT NOT NULL,
	idempotency_key TEXT,
	subtotal DOUBLE PRECISION NOT NULL,
	base_delivery_fee DOUBLE PRECISION NOT NULL,
	delivery_fee DOUBLE PRECISION NOT NULL,
	free_shipping BOOLEAN NOT NULL DEFAULT FALSE,
	total_discount DOUBLE PRECISION NOT NULL,
	total DOUBLE PRECISION NOT NULL,
	savings DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS orders_idempotency_key ON orders (idempotency_key)
	WHERE idempotency_key IS NOT NULL;

CREATE TABLE IF NOT EXISTS order_lines (
	order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	position INT NOT NULL,
	product_id TEXT NOT NULL,
	variant_id TEXT NOT NULL DEFAULT '',
	quantity INT NOT NULL,
	unit_price DOUBLE PRECISION NOT NULL,
	line_total DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (order_id, position)
);

CREATE TABLE IF NOT EXISTS order_offers (
	order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	position INT NOT NULL,
	offer_id TEXT NOT NULL,
	title TEXT NOT NULL,
	type TEXT NOT NULL,
	amount DOUBLE PRECISION NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	free_items JSONB,
	PRIMARY KEY (order_id, position)
);
`

// PostgresRepository is a Repository backed by Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository wraps an open database handle.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the order tables.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate orders: %w", err)
	}
	return nil
}

// Save implements Repository. Lines and offers are written in the same transaction.
func (r *PostgresRepository) Save(ctx context.Context, o model.Order, idempotencyKey string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var key sql.NullString
	if idempotencyKey != "" {
		key = sql.NullString{String: idempotencyKey, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, cart_id, idempotency_key, subtotal, base_delivery_fee, delivery_fee,
			free_shipping, total_discount, total, savings, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.CartID, key, o.Subtotal, o.BaseDeliveryFee, o.DeliveryFee,
		o.FreeShipping, o.TotalDiscount, o.Total, o.Savings, o.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i, l := range o.Lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, position, product_id, variant_id, quantity, unit_price, line_total)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.ID, i, l.ProductID, l.VariantID, l.Quantity, l.UnitPrice, l.LineTotal,
		); err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	for i, a := range o.AppliedOffers {
		var freeItems sql.NullString
		if len(a.FreeItems) > 0 {
			data, err := json.Marshal(a.FreeItems)
			if err != nil {
				return fmt.Errorf("failed to encode free items: %w", err)
			}
			freeItems = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_offers (order_id, position, offer_id, title, type, amount, message, free_items)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			o.ID, i, a.OfferID, a.Title, a.Type, a.Discount, a.Message, freeItems,
		); err != nil {
			return fmt.Errorf("failed to insert order offer: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get implements Repository.
func (r *PostgresRepository) Get(ctx context.Context, id string) (model.Order, error) {
	var o model.Order
	err := r.db.QueryRowContext(ctx, `
		SELECT id, cart_id, subtotal, base_delivery_fee, delivery_fee, free_shipping,
			total_discount, total, savings, created_at
		FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.CartID, &o.Subtotal, &o.BaseDeliveryFee, &o.DeliveryFee, &o.FreeShipping,
		&o.TotalDiscount, &o.Total, &o.Savings, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, fmt.Errorf("failed to load order: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, variant_id, quantity, unit_price, line_total
		FROM order_lines WHERE order_id = $1 ORDER BY position`, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l model.OrderLine
		if err := rows.Scan(&l.ProductID, &l.VariantID, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return model.Order{}, fmt.Errorf("failed to scan order line: %w", err)
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return model.Order{}, fmt.Errorf("failed to read order lines: %w", err)
	}

	offers, err := r.db.QueryContext(ctx, `
		SELECT offer_id, title, type, amount, message, free_items
		FROM order_offers WHERE order_id = $1 ORDER BY position`, id)
	if err != nil {
		return model.Order{}, fmt.Errorf("failed to query order offers: %w", err)
	}
	defer offers.Close()
	o.AppliedOffers = []model.AppliedOffer{}
	for offers.Next() {
		var a model.AppliedOffer
		var freeItems sql.NullString
		if err := offers.Scan(&a.OfferID, &a.Title, &a.Type, &a.Discount, &a.Message, &freeItems); err != nil {
			return model.Order{}, fmt.Errorf("failed to scan order offer: %w", err)
		}
		if freeItems.Valid {
			if err := json.Unmarshal([]byte(freeItems.String), &a.FreeItems); err != nil {
				return model.Order{}, fmt.Errorf("failed to decode free items: %w", err)
			}
		}
		o.AppliedOffers = append(o.AppliedOffers, a)
	}
	if err := offers.Err(); err != nil {
		return model.Order{}, fmt.Errorf("failed to read order offers: %w", err)
	}

	o.CreatedAt = o.CreatedAt.UTC()
	return o, nil
}

var _ Repository = (*PostgresRepository)(nil)
