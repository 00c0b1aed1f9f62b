package summary

import (
	"strings"
	"testing"

	"storefront-pricing/internal/model"
)

func TestFormat(t *testing.T) {
	order := model.Order{
		ID: "ord-1",
		Lines: []model.OrderLine{
			{ProductID: "shirt", VariantID: "L", Quantity: 2, UnitPrice: 45.5, LineTotal: 91},
			{ProductID: "socks", Quantity: 4, UnitPrice: 10, LineTotal: 40},
		},
		AppliedOffers: []model.AppliedOffer{
			{Title: "Socks BOGO", Discount: 20, FreeItems: []model.FreeItem{{ProductID: "socks", Quantity: 2}}},
			{Title: "Free delivery", Discount: 30},
		},
		Subtotal:      131,
		DeliveryFee:   0,
		FreeShipping:  true,
		TotalDiscount: 50,
		Total:         81,
		Savings:       50,
	}

	got := Format(order, Options{Currency: "SAR"})
	want := strings.Join([]string{
		"Order ord-1",
		"2 x shirt (L) @ 45.50 SAR = 91.00 SAR",
		"4 x socks @ 10.00 SAR = 40.00 SAR",
		"",
		"Offers:",
		"- Socks BOGO: -20.00 SAR",
		"  🎁 2 x socks free",
		"- Free delivery: -30.00 SAR",
		"",
		"Subtotal: 131.00 SAR",
		"Delivery: Free 🚚",
		"Discounts: -50.00 SAR",
		"Total: 81.00 SAR",
		"You saved 50.00 SAR",
	}, "\n")

	if got != want {
		t.Errorf("Format() =\n%s\n\nwant\n%s", got, want)
	}
}

func TestFormatWithoutOffers(t *testing.T) {
	order := model.Order{
		ID:          "ord-2",
		Lines:       []model.OrderLine{{ProductID: "mug", Quantity: 1, UnitPrice: 12.5, LineTotal: 12.5}},
		Subtotal:    12.5,
		DeliveryFee: 15,
		Total:       27.5,
	}

	got := Format(order, Options{})

	if strings.Contains(got, "Offers:") {
		t.Error("offer section should be omitted")
	}
	if strings.Contains(got, "saved") {
		t.Error("savings line should be omitted")
	}
	if !strings.Contains(got, "Delivery: 15.00\n") {
		t.Errorf("delivery fee missing:\n%s", got)
	}
	if !strings.HasSuffix(got, "Total: 27.50") {
		t.Errorf("should end with total:\n%s", got)
	}
}
