// Package pricing turns a cart and a catalog of promotional offers into an itemized price.
// Every function here is pure: inputs are never mutated and nothing is read behind the
// caller's back, so calls are safe from any number of goroutines.
package pricing

import (
	"math"
	"time"
)

// Kind is the offer type tag as stored in the catalog.
type Kind string

const (
	KindPercentage       Kind = "percentage"
	KindFixed            Kind = "fixed"
	KindCategoryDiscount Kind = "category_discount"
	KindBuyXGetY         Kind = "buy_x_get_y"
	KindBOGO             Kind = "bogo"
	KindFreeShipping     Kind = "free_shipping"
)

// Product is the catalog view of a sellable item.
type Product struct {
	ID         string
	CategoryID string
	Price      float64
	Variants   []Variant
}

// Variant overrides the product price when selected.
type Variant struct {
	ID    string
	Price float64
}

// Variant returns the variant with the given ID.
func (p Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// CartLine is a product in the cart. Variant is nil when none is selected.
type CartLine struct {
	Product  Product
	Variant  *Variant
	Quantity int
}

// UnitPrice returns the variant price if one is selected, else the product price.
// Non-finite or negative prices count as zero.
func (l CartLine) UnitPrice() float64 {
	price := l.Product.Price
	if l.Variant != nil {
		price = l.Variant.Price
	}
	return sanitizeAmount(price)
}

// quantity clamps negative quantities to zero.
func (l CartLine) quantity() int {
	if l.Quantity < 0 {
		return 0
	}
	return l.Quantity
}

// Total is unit price times quantity.
func (l CartLine) Total() float64 {
	return l.UnitPrice() * float64(l.quantity())
}

// Offer is a promotional rule. Terms holds the kind-specific payload.
type Offer struct {
	ID       string
	Title    string
	Active   bool
	StartsAt *time.Time
	EndsAt   *time.Time
	// Priority orders application and display; higher comes first.
	Priority  int
	AutoApply bool
	// Products and Categories scope the offer. Both empty means every product.
	Products   []string
	Categories []string
	Terms      Terms
}

// Kind returns the type tag of the offer terms, or "" when terms are missing.
func (o Offer) Kind() Kind {
	if o.Terms == nil {
		return ""
	}
	return o.Terms.Kind()
}

// Terms is the closed set of offer kinds. Only types in this package implement it,
// and each implementation is its own calculator.
type Terms interface {
	Kind() Kind
	discount(o Offer, lines []CartLine) (AppliedOffer, bool)
}

// Percentage takes Percent (0-100) off every applicable line.
type Percentage struct {
	Percent float64
}

// CategoryDiscount behaves like Percentage; it exists as its own tag so the back-office
// can label category-wide sales separately.
type CategoryDiscount struct {
	Percent float64
}

// Fixed takes Amount off the cart once when any line is applicable.
type Fixed struct {
	Amount float64
}

// BuyXGetY grants Free units per complete set of Buy units on each applicable line.
type BuyXGetY struct {
	Buy  int
	Free int
}

// BOGO grants one free unit for every two units on each applicable line.
type BOGO struct{}

// FreeShipping waives the delivery fee once the subtotal reaches MinAmount.
type FreeShipping struct {
	MinAmount float64
}

func (Percentage) Kind() Kind       { return KindPercentage }
func (CategoryDiscount) Kind() Kind { return KindCategoryDiscount }
func (Fixed) Kind() Kind            { return KindFixed }
func (BuyXGetY) Kind() Kind         { return KindBuyXGetY }
func (BOGO) Kind() Kind             { return KindBOGO }
func (FreeShipping) Kind() Kind     { return KindFreeShipping }

// AppliedOffer is one offer's effect on a cart.
type AppliedOffer struct {
	Offer     Offer
	Discount  float64
	Message   string
	FreeItems []FreeItem
}

// FreeItem is a unit given away by a buy-x-get-y or bogo offer.
type FreeItem struct {
	ProductID string
	VariantID string
	Quantity  int
}

// sanitizeAmount maps NaN, infinities and negatives to zero.
func sanitizeAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
