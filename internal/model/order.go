package model

import (
	"time"

	"storefront-pricing/internal/pricing"
)

// Order is a placed order with the pricing it was placed at.
type Order struct {
	ID              string         `json:"id"`
	CartID          string         `json:"cart_id"`
	Lines           []OrderLine    `json:"lines"`
	AppliedOffers   []AppliedOffer `json:"applied_offers"`
	Subtotal        float64        `json:"subtotal"`
	BaseDeliveryFee float64        `json:"base_delivery_fee"`
	DeliveryFee     float64        `json:"delivery_fee"`
	FreeShipping    bool           `json:"free_shipping"`
	TotalDiscount   float64        `json:"total_discount"`
	Total           float64        `json:"total"`
	Savings         float64        `json:"savings"`
	CreatedAt       time.Time      `json:"created_at"`
}

// OrderLine is one purchased line.
type OrderLine struct {
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// PlaceOrderResponse is returned by POST /carts/{id}/orders.
// Replayed is set when the idempotency key matched an earlier order.
type PlaceOrderResponse struct {
	Order    Order  `json:"order"`
	Summary  string `json:"summary"`
	Replayed bool   `json:"replayed,omitempty"`
}

// NewOrder freezes a priced cart into an order.
func NewOrder(id, cartID string, lines []pricing.CartLine, calc pricing.CartCalculation, createdAt time.Time) Order {
	wire := NewCalculation(calc)
	o := Order{
		ID:              id,
		CartID:          cartID,
		Lines:           make([]OrderLine, 0, len(lines)),
		AppliedOffers:   wire.AppliedOffers,
		Subtotal:        wire.Subtotal,
		BaseDeliveryFee: wire.BaseDeliveryFee,
		DeliveryFee:     wire.DeliveryFee,
		FreeShipping:    wire.FreeShipping,
		TotalDiscount:   wire.TotalDiscount,
		Total:           wire.Total,
		Savings:         wire.Savings,
		CreatedAt:       createdAt.UTC(),
	}
	for _, l := range lines {
		ol := OrderLine{
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
			UnitPrice: RoundAmount(l.UnitPrice()),
			LineTotal: RoundAmount(l.Total()),
		}
		if l.Variant != nil {
			ol.VariantID = l.Variant.ID
		}
		o.Lines = append(o.Lines, ol)
	}
	return o
}
