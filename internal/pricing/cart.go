package pricing

import (
	"fmt"
	"sort"
	"time"
)

// CartCalculation is the priced cart.
type CartCalculation struct {
	Subtotal float64
	// BaseDeliveryFee is the fee supplied by the caller; DeliveryFee is what the
	// customer pays after free-shipping resolution.
	BaseDeliveryFee float64
	DeliveryFee     float64
	FreeShipping    bool
	// AppliedOffers is ordered by priority, highest first. The free-shipping waiver,
	// when present, is last.
	AppliedOffers []AppliedOffer
	TotalDiscount float64
	Total         float64
	// Savings equals TotalDiscount; it is reported on its own for "you saved" banners.
	Savings float64
	// FreeShippingHint is advisory only and never affects the totals.
	FreeShippingHint *ShippingHint
}

// ShippingHint tells the customer how much more to spend to unlock free shipping.
type ShippingHint struct {
	Offer     Offer
	Remaining float64
	Message   string
}

// Engine prices carts against an offer catalog. The zero value uses time.Now and
// breaks priority ties by catalog order.
type Engine struct {
	// Now supplies the instant used for validity checks.
	Now func() time.Time
	// TieBreakByID orders equal-priority offers by ID so results do not depend on the
	// order the catalog was fetched in.
	TieBreakByID bool
}

func (e *Engine) now() time.Time {
	if e == nil || e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// CalculateCart prices lines against offers with the engine clock.
func (e *Engine) CalculateCart(lines []CartLine, offers []Offer, baseDeliveryFee float64) CartCalculation {
	return e.calculate(lines, offers, baseDeliveryFee, e.now())
}

// CalculateCartAt prices lines as of the given instant. Used for back-office previews.
func (e *Engine) CalculateCartAt(lines []CartLine, offers []Offer, baseDeliveryFee float64, at time.Time) CartCalculation {
	return e.calculate(lines, offers, baseDeliveryFee, at)
}

// CalculateCart prices lines against offers as of now using catalog-order tie breaks.
func CalculateCart(lines []CartLine, offers []Offer, baseDeliveryFee float64, now time.Time) CartCalculation {
	var e Engine
	return e.calculate(lines, offers, baseDeliveryFee, now)
}

func (e *Engine) calculate(lines []CartLine, offers []Offer, baseDeliveryFee float64, now time.Time) CartCalculation {
	fee := sanitizeAmount(baseDeliveryFee)

	var subtotal float64
	for _, line := range lines {
		subtotal += line.Total()
	}

	var applied []AppliedOffer
	var shipping []Offer
	for _, o := range offers {
		if o.Terms == nil || !o.AutoApply || !IsValid(o, now) {
			continue
		}
		if _, ok := o.Terms.(FreeShipping); ok {
			shipping = append(shipping, o)
			continue
		}
		if result, ok := o.Terms.discount(o, lines); ok {
			applied = append(applied, result)
		}
	}
	sort.SliceStable(applied, func(i, j int) bool {
		return e.before(applied[i].Offer, applied[j].Offer)
	})

	calc := CartCalculation{
		Subtotal:        subtotal,
		BaseDeliveryFee: fee,
		DeliveryFee:     fee,
	}

	waiver, hint := e.resolveShipping(shipping, subtotal, fee)
	if waiver != nil {
		calc.DeliveryFee = 0
		calc.FreeShipping = true
		if waiver.Discount > 0 {
			applied = append(applied, *waiver)
		}
	}
	calc.FreeShippingHint = hint
	calc.AppliedOffers = applied

	for _, a := range applied {
		calc.TotalDiscount += a.Discount
	}
	calc.Savings = calc.TotalDiscount

	total := subtotal - calc.TotalDiscount + calc.DeliveryFee
	if !(total > 0) {
		total = 0
	}
	calc.Total = total
	return calc
}

// resolveShipping picks the first qualifying free-shipping offer in priority order.
// Without one, the hint points at the lowest threshold still out of reach.
func (e *Engine) resolveShipping(offers []Offer, subtotal, fee float64) (*AppliedOffer, *ShippingHint) {
	sort.SliceStable(offers, func(i, j int) bool {
		return e.before(offers[i], offers[j])
	})

	var hint *ShippingHint
	for _, o := range offers {
		minAmount, ok := o.Terms.(FreeShipping).threshold()
		if !ok {
			continue
		}
		if subtotal >= minAmount {
			return &AppliedOffer{
				Offer:    o,
				Discount: fee,
				Message:  fmt.Sprintf("%s: free delivery unlocked!", o.Title),
			}, nil
		}
		remaining := minAmount - subtotal
		if hint == nil || remaining < hint.Remaining {
			hint = &ShippingHint{
				Offer:     o,
				Remaining: remaining,
				Message:   fmt.Sprintf("Spend %s more to unlock free delivery", formatAmount(remaining)),
			}
		}
	}
	return nil, hint
}

// before orders a ahead of b: higher priority first, then ID when configured.
func (e *Engine) before(a, b Offer) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if e != nil && e.TieBreakByID {
		return a.ID < b.ID
	}
	return false
}
