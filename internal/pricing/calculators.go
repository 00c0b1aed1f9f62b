package pricing

import (
	"fmt"
	"math"
	"strconv"
)

// Per-kind calculators. Each returns ok=false when the offer has no effect on the cart,
// including when its own fields are out of range. Amounts keep full precision; rounding
// to cents is a display concern.

func (t Percentage) discount(o Offer, lines []CartLine) (AppliedOffer, bool) {
	return percentOff(o, t.Percent, lines)
}

func (t CategoryDiscount) discount(o Offer, lines []CartLine) (AppliedOffer, bool) {
	return percentOff(o, t.Percent, lines)
}

func percentOff(o Offer, percent float64, lines []CartLine) (AppliedOffer, bool) {
	if math.IsNaN(percent) || percent <= 0 || percent > 100 {
		return AppliedOffer{}, false
	}
	var total float64
	for _, line := range applicableLines(o, lines) {
		total += line.Total() * (percent / 100)
	}
	if total <= 0 {
		return AppliedOffer{}, false
	}
	return AppliedOffer{
		Offer:    o,
		Discount: total,
		Message:  fmt.Sprintf("%s: %s%% off", o.Title, formatAmount(percent)),
	}, true
}

func (t Fixed) discount(o Offer, lines []CartLine) (AppliedOffer, bool) {
	amount := sanitizeAmount(t.Amount)
	if amount == 0 || len(applicableLines(o, lines)) == 0 {
		return AppliedOffer{}, false
	}
	return AppliedOffer{
		Offer:    o,
		Discount: amount,
		Message:  fmt.Sprintf("%s: %s off", o.Title, formatAmount(amount)),
	}, true
}

func (t BuyXGetY) discount(o Offer, lines []CartLine) (AppliedOffer, bool) {
	if t.Buy <= 0 || t.Free <= 0 {
		return AppliedOffer{}, false
	}
	applied, ok := freeUnits(o, lines, func(qty int) int {
		return (qty / t.Buy) * t.Free
	})
	if !ok {
		return AppliedOffer{}, false
	}
	applied.Message = fmt.Sprintf("%s: buy %d get %d free", o.Title, t.Buy, t.Free)
	return applied, true
}

func (BOGO) discount(o Offer, lines []CartLine) (AppliedOffer, bool) {
	applied, ok := freeUnits(o, lines, func(qty int) int {
		return qty / 2
	})
	if !ok {
		return AppliedOffer{}, false
	}
	applied.Message = fmt.Sprintf("%s: buy one get one free", o.Title)
	return applied, true
}

// freeUnits accumulates give-away units across applicable lines. granted maps a line
// quantity to the number of free units it earns.
func freeUnits(o Offer, lines []CartLine, granted func(qty int) int) (AppliedOffer, bool) {
	applied := AppliedOffer{Offer: o}
	for _, line := range applicableLines(o, lines) {
		free := granted(line.quantity())
		if free <= 0 {
			continue
		}
		item := FreeItem{ProductID: line.Product.ID, Quantity: free}
		if line.Variant != nil {
			item.VariantID = line.Variant.ID
		}
		applied.FreeItems = append(applied.FreeItems, item)
		applied.Discount += line.UnitPrice() * float64(free)
	}
	if len(applied.FreeItems) == 0 {
		return AppliedOffer{}, false
	}
	return applied, true
}

// Free shipping compares against the cart subtotal and waives the fee instead of
// discounting goods, so CalculateCart resolves it directly.
func (FreeShipping) discount(Offer, []CartLine) (AppliedOffer, bool) {
	return AppliedOffer{}, false
}

// threshold returns the sanitized minimum spend and whether the offer is usable.
func (t FreeShipping) threshold() (float64, bool) {
	if math.IsNaN(t.MinAmount) || math.IsInf(t.MinAmount, 0) || t.MinAmount < 0 {
		return 0, false
	}
	return t.MinAmount, true
}

// formatAmount renders an amount for messages with at most two decimals.
func formatAmount(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
