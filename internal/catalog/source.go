package catalog

import (
	"context"

	"storefront-pricing/internal/pricing"
)

// Source is read access to the offer and product catalog.
type Source interface {
	// ActiveOffers returns decodable rows with is_active set, highest priority first.
	ActiveOffers(ctx context.Context) ([]OfferRecord, error)
	// Products returns the requested products with their variants. Unknown IDs are
	// absent from the map.
	Products(ctx context.Context, ids []string) (map[string]pricing.Product, error)
}

// Mock implements Source for testing.
// Each function field can be set to customize behavior.
type Mock struct {
	ActiveOffersFunc func(ctx context.Context) ([]OfferRecord, error)
	ProductsFunc     func(ctx context.Context, ids []string) (map[string]pricing.Product, error)
}

func (m *Mock) ActiveOffers(ctx context.Context) ([]OfferRecord, error) {
	if m.ActiveOffersFunc != nil {
		return m.ActiveOffersFunc(ctx)
	}
	return nil, nil
}

func (m *Mock) Products(ctx context.Context, ids []string) (map[string]pricing.Product, error) {
	if m.ProductsFunc != nil {
		return m.ProductsFunc(ctx, ids)
	}
	return map[string]pricing.Product{}, nil
}

// Compile-time check that Mock implements Source.
var _ Source = (*Mock)(nil)
