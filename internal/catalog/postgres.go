package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"storefront-pricing/internal/pricing"
)

// ChangeChannel is the NOTIFY channel raised whenever the offers table changes.
const ChangeChannel = "offers_changed"

const schema = `
CREATE TABLE IF NOT EXISTS offers (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT FALSE,
	start_date TIMESTAMPTZ,
	end_date TIMESTAMPTZ,
	priority INT NOT NULL DEFAULT 0,
	auto_apply BOOLEAN NOT NULL DEFAULT FALSE,
	applicable_products TEXT[],
	applicable_categories TEXT[],
	discount_percentage DOUBLE PRECISION,
	discount_amount DOUBLE PRECISION,
	min_quantity INT,
	free_quantity INT,
	min_amount DOUBLE PRECISION,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	category_id TEXT NOT NULL DEFAULT '',
	price DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS product_variants (
	id TEXT NOT NULL,
	product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	price DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (product_id, id)
);

CREATE OR REPLACE FUNCTION notify_offers_changed() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('offers_changed', '');
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS offers_changed ON offers;
CREATE TRIGGER offers_changed
	AFTER INSERT OR UPDATE OR DELETE ON offers
	FOR EACH STATEMENT EXECUTE FUNCTION notify_offers_changed();
`

// PostgresStore is a Source backed by Postgres.
type PostgresStore struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the catalog tables and the change trigger.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return nil
}

// ActiveOffers implements Source.
func (s *PostgresStore) ActiveOffers(ctx context.Context) ([]OfferRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, type, is_active, start_date, end_date, priority, auto_apply,
			applicable_products, applicable_categories,
			discount_percentage, discount_amount, min_quantity, free_quantity, min_amount
		FROM offers
		WHERE is_active = TRUE
		ORDER BY priority DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	var records []OfferRecord
	for rows.Next() {
		var r OfferRecord
		if err := rows.Scan(
			&r.ID, &r.Title, &r.Type, &r.IsActive, &r.StartDate, &r.EndDate, &r.Priority, &r.AutoApply,
			&r.ApplicableProducts, &r.ApplicableCategories,
			&r.DiscountPercentage, &r.DiscountAmount, &r.MinQuantity, &r.FreeQuantity, &r.MinAmount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read offers: %w", err)
	}
	return records, nil
}

// Products implements Source.
func (s *PostgresStore) Products(ctx context.Context, ids []string) (map[string]pricing.Product, error) {
	products := make(map[string]pricing.Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, category_id, price FROM products WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p pricing.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	vrows, err := s.db.QueryContext(ctx,
		"SELECT product_id, id, price FROM product_variants WHERE product_id = ANY($1) ORDER BY product_id, id",
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer vrows.Close()
	for vrows.Next() {
		var productID string
		var v pricing.Variant
		if err := vrows.Scan(&productID, &v.ID, &v.Price); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		p := products[productID]
		p.Variants = append(p.Variants, v)
		products[productID] = p
	}
	if err := vrows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read variants: %w", err)
	}
	return products, nil
}

// SaveOffer inserts or replaces an offer row.
func (s *PostgresStore) SaveOffer(ctx context.Context, r OfferRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO offers (id, title, type, is_active, start_date, end_date, priority, auto_apply,
			applicable_products, applicable_categories,
			discount_percentage, discount_amount, min_quantity, free_quantity, min_amount, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW())
		ON CONFLICT (id) DO UPDATE SET
			title=$2, type=$3, is_active=$4, start_date=$5, end_date=$6, priority=$7, auto_apply=$8,
			applicable_products=$9, applicable_categories=$10,
			discount_percentage=$11, discount_amount=$12, min_quantity=$13, free_quantity=$14, min_amount=$15,
			updated_at=NOW()`,
		r.ID, r.Title, r.Type, r.IsActive, r.StartDate, r.EndDate, r.Priority, r.AutoApply,
		r.ApplicableProducts, r.ApplicableCategories,
		r.DiscountPercentage, r.DiscountAmount, r.MinQuantity, r.FreeQuantity, r.MinAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to save offer %s: %w", r.ID, err)
	}
	return nil
}

// SaveProduct inserts or replaces a product and its variants.
func (s *PostgresStore) SaveProduct(ctx context.Context, p pricing.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO products (id, category_id, price) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET category_id=$2, price=$3`,
		p.ID, p.CategoryID, p.Price); err != nil {
		return fmt.Errorf("failed to save product %s: %w", p.ID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM product_variants WHERE product_id = $1", p.ID); err != nil {
		return fmt.Errorf("failed to clear variants of %s: %w", p.ID, err)
	}
	for _, v := range p.Variants {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO product_variants (id, product_id, price) VALUES ($1,$2,$3)",
			v.ID, p.ID, v.Price); err != nil {
			return fmt.Errorf("failed to save variant %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var _ Source = (*PostgresStore)(nil)
