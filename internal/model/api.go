package model

import (
	"time"

	"storefront-pricing/internal/pricing"
)

// LineRequest is one requested cart line.
type LineRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// PriceCartRequest is the body of POST /cart/price and the price_cart tool.
// DeliveryFee overrides the configured base fee when present.
type PriceCartRequest struct {
	Lines       []LineRequest `json:"lines"`
	DeliveryFee *float64      `json:"delivery_fee,omitempty"`
}

// CartRequest is the body of PUT /carts/{id}.
type CartRequest struct {
	Lines []LineRequest `json:"lines"`
}

// Cart is a stored cart as returned by GET /carts/{id}.
type Cart struct {
	ID    string        `json:"id"`
	Lines []LineRequest `json:"lines"`
}

// Calculation is the wire form of a priced cart. Amounts are rounded to cents.
type Calculation struct {
	Subtotal         float64        `json:"subtotal"`
	BaseDeliveryFee  float64        `json:"base_delivery_fee"`
	DeliveryFee      float64        `json:"delivery_fee"`
	FreeShipping     bool           `json:"free_shipping"`
	AppliedOffers    []AppliedOffer `json:"applied_offers"`
	TotalDiscount    float64        `json:"total_discount"`
	Total            float64        `json:"total"`
	Savings          float64        `json:"savings"`
	FreeShippingHint *ShippingHint  `json:"free_shipping_hint,omitempty"`
}

// AppliedOffer is the wire form of pricing.AppliedOffer.
type AppliedOffer struct {
	OfferID   string     `json:"offer_id"`
	Title     string     `json:"title"`
	Type      string     `json:"type"`
	Discount  float64    `json:"discount"`
	Message   string     `json:"message"`
	FreeItems []FreeItem `json:"free_items,omitempty"`
}

// FreeItem is a unit given away by an offer.
type FreeItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// ShippingHint tells the shopper how far they are from free delivery.
type ShippingHint struct {
	OfferID   string  `json:"offer_id"`
	Remaining float64 `json:"remaining"`
	Message   string  `json:"message"`
}

// Offer is the wire form of a catalog offer. Only the fields of its type are set.
type Offer struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Type               string     `json:"type"`
	Active             bool       `json:"is_active"`
	StartsAt           *time.Time `json:"start_date,omitempty"`
	EndsAt             *time.Time `json:"end_date,omitempty"`
	Priority           int        `json:"priority"`
	AutoApply          bool       `json:"auto_apply"`
	Products           []string   `json:"applicable_products,omitempty"`
	Categories         []string   `json:"applicable_categories,omitempty"`
	DiscountPercentage *float64   `json:"discount_percentage,omitempty"`
	DiscountAmount     *float64   `json:"discount_amount,omitempty"`
	MinQuantity        *int       `json:"min_quantity,omitempty"`
	FreeQuantity       *int       `json:"free_quantity,omitempty"`
	MinAmount          *float64   `json:"min_amount,omitempty"`
}

// OfferList is the response of GET /offers.
type OfferList struct {
	Offers []Offer `json:"offers"`
}

// NewCalculation converts an engine result to its wire form.
func NewCalculation(c pricing.CartCalculation) Calculation {
	out := Calculation{
		Subtotal:        RoundAmount(c.Subtotal),
		BaseDeliveryFee: RoundAmount(c.BaseDeliveryFee),
		DeliveryFee:     RoundAmount(c.DeliveryFee),
		FreeShipping:    c.FreeShipping,
		AppliedOffers:   make([]AppliedOffer, 0, len(c.AppliedOffers)),
		TotalDiscount:   RoundAmount(c.TotalDiscount),
		Total:           RoundAmount(c.Total),
		Savings:         RoundAmount(c.Savings),
	}
	for _, a := range c.AppliedOffers {
		applied := AppliedOffer{
			OfferID:  a.Offer.ID,
			Title:    a.Offer.Title,
			Type:     string(a.Offer.Kind()),
			Discount: RoundAmount(a.Discount),
			Message:  a.Message,
		}
		for _, f := range a.FreeItems {
			applied.FreeItems = append(applied.FreeItems, FreeItem(f))
		}
		out.AppliedOffers = append(out.AppliedOffers, applied)
	}
	if h := c.FreeShippingHint; h != nil {
		out.FreeShippingHint = &ShippingHint{
			OfferID:   h.Offer.ID,
			Remaining: RoundAmount(h.Remaining),
			Message:   h.Message,
		}
	}
	return out
}

// NewOffer converts a decoded offer to its wire form.
func NewOffer(o pricing.Offer) Offer {
	out := Offer{
		ID:         o.ID,
		Title:      o.Title,
		Type:       string(o.Kind()),
		Active:     o.Active,
		StartsAt:   o.StartsAt,
		EndsAt:     o.EndsAt,
		Priority:   o.Priority,
		AutoApply:  o.AutoApply,
		Products:   o.Products,
		Categories: o.Categories,
	}
	switch t := o.Terms.(type) {
	case pricing.Percentage:
		out.DiscountPercentage = &t.Percent
	case pricing.CategoryDiscount:
		out.DiscountPercentage = &t.Percent
	case pricing.Fixed:
		out.DiscountAmount = &t.Amount
	case pricing.BuyXGetY:
		out.MinQuantity = &t.Buy
		out.FreeQuantity = &t.Free
	case pricing.FreeShipping:
		out.MinAmount = &t.MinAmount
	}
	return out
}

// NewOfferList converts a catalog snapshot to its wire form.
func NewOfferList(offers []pricing.Offer) OfferList {
	out := OfferList{Offers: make([]Offer, 0, len(offers))}
	for _, o := range offers {
		out.Offers = append(out.Offers, NewOffer(o))
	}
	return out
}
