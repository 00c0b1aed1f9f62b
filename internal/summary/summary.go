// Package summary renders a placed order as plain text for notifications and receipts.
package summary

import (
	"fmt"
	"strings"

	"storefront-pricing/internal/model"
)

// Options controls presentation.
type Options struct {
	// Currency is appended to every amount, e.g. "SAR". Empty prints bare amounts.
	Currency string
}

// Format renders lines in cart order, then applied offers in priority order, then totals.
func Format(o model.Order, opts Options) string {
	price := func(v float64) string { return model.FormatPrice(v, opts.Currency) }

	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n", o.ID)

	for _, l := range o.Lines {
		name := l.ProductID
		if l.VariantID != "" {
			name += " (" + l.VariantID + ")"
		}
		fmt.Fprintf(&b, "%d x %s @ %s = %s\n", l.Quantity, name, price(l.UnitPrice), price(l.LineTotal))
	}

	if len(o.AppliedOffers) > 0 {
		b.WriteString("\nOffers:\n")
		for _, a := range o.AppliedOffers {
			fmt.Fprintf(&b, "- %s: -%s\n", a.Title, price(a.Discount))
			for _, f := range a.FreeItems {
				name := f.ProductID
				if f.VariantID != "" {
					name += " (" + f.VariantID + ")"
				}
				fmt.Fprintf(&b, "  🎁 %d x %s free\n", f.Quantity, name)
			}
		}
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", price(o.Subtotal))
	if o.FreeShipping {
		b.WriteString("Delivery: Free 🚚\n")
	} else {
		fmt.Fprintf(&b, "Delivery: %s\n", price(o.DeliveryFee))
	}
	if o.TotalDiscount > 0 {
		fmt.Fprintf(&b, "Discounts: -%s\n", price(o.TotalDiscount))
	}
	fmt.Fprintf(&b, "Total: %s\n", price(o.Total))
	if o.Savings > 0 {
		fmt.Fprintf(&b, "You saved %s", price(o.Savings))
	}
	return strings.TrimRight(b.String(), "\n")
}
