package model

import (
	"encoding/json"
	"strings"
	"testing"

	"storefront-pricing/internal/pricing"
)

func TestNewCalculation(t *testing.T) {
	bogo := pricing.Offer{ID: "o1", Title: "Pairs", Terms: pricing.BOGO{}}
	ship := pricing.Offer{ID: "o2", Title: "Ship", Terms: pricing.FreeShipping{MinAmount: 200}}

	got := NewCalculation(pricing.CartCalculation{
		Subtotal:        100.0 / 3,
		BaseDeliveryFee: 15,
		DeliveryFee:     15,
		AppliedOffers: []pricing.AppliedOffer{{
			Offer:     bogo,
			Discount:  10.005,
			Message:   "Pairs: buy one get one free",
			FreeItems: []pricing.FreeItem{{ProductID: "P1", VariantID: "V1", Quantity: 1}},
		}},
		TotalDiscount:    10.005,
		Total:            38.328333,
		Savings:          10.005,
		FreeShippingHint: &pricing.ShippingHint{Offer: ship, Remaining: 166.666666, Message: "Spend 166.67 more"},
	})

	if got.Subtotal != 33.33 {
		t.Errorf("Subtotal = %v, want 33.33", got.Subtotal)
	}
	if got.Total != 38.33 {
		t.Errorf("Total = %v, want 38.33", got.Total)
	}
	if len(got.AppliedOffers) != 1 {
		t.Fatalf("AppliedOffers len = %d, want 1", len(got.AppliedOffers))
	}
	a := got.AppliedOffers[0]
	if a.OfferID != "o1" || a.Type != "bogo" || a.Discount != 10.01 {
		t.Errorf("AppliedOffers[0] = %+v", a)
	}
	if len(a.FreeItems) != 1 || a.FreeItems[0].VariantID != "V1" {
		t.Errorf("FreeItems = %+v", a.FreeItems)
	}
	if got.FreeShippingHint == nil || got.FreeShippingHint.OfferID != "o2" || got.FreeShippingHint.Remaining != 166.67 {
		t.Errorf("FreeShippingHint = %+v", got.FreeShippingHint)
	}
}

func TestNewCalculationEmptyOffersSerializeAsArray(t *testing.T) {
	data, err := json.Marshal(NewCalculation(pricing.CartCalculation{}))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"applied_offers":[]`) {
		t.Errorf("applied_offers should be an empty array: %s", data)
	}
	if strings.Contains(string(data), "free_shipping_hint") {
		t.Errorf("nil hint should be omitted: %s", data)
	}
}

func TestNewOffer(t *testing.T) {
	tests := []struct {
		name  string
		terms pricing.Terms
		check func(t *testing.T, o Offer)
	}{
		{"percentage", pricing.Percentage{Percent: 15}, func(t *testing.T, o Offer) {
			if o.DiscountPercentage == nil || *o.DiscountPercentage != 15 {
				t.Errorf("DiscountPercentage = %v", o.DiscountPercentage)
			}
		}},
		{"category_discount", pricing.CategoryDiscount{Percent: 20}, func(t *testing.T, o Offer) {
			if o.DiscountPercentage == nil || *o.DiscountPercentage != 20 {
				t.Errorf("DiscountPercentage = %v", o.DiscountPercentage)
			}
		}},
		{"fixed", pricing.Fixed{Amount: 5}, func(t *testing.T, o Offer) {
			if o.DiscountAmount == nil || *o.DiscountAmount != 5 {
				t.Errorf("DiscountAmount = %v", o.DiscountAmount)
			}
		}},
		{"buy_x_get_y", pricing.BuyXGetY{Buy: 3, Free: 1}, func(t *testing.T, o Offer) {
			if o.MinQuantity == nil || *o.MinQuantity != 3 || o.FreeQuantity == nil || *o.FreeQuantity != 1 {
				t.Errorf("MinQuantity/FreeQuantity = %v/%v", o.MinQuantity, o.FreeQuantity)
			}
		}},
		{"bogo", pricing.BOGO{}, func(t *testing.T, o Offer) {
			if o.DiscountPercentage != nil || o.DiscountAmount != nil || o.MinQuantity != nil {
				t.Errorf("bogo should carry no payload: %+v", o)
			}
		}},
		{"free_shipping", pricing.FreeShipping{MinAmount: 250}, func(t *testing.T, o Offer) {
			if o.MinAmount == nil || *o.MinAmount != 250 {
				t.Errorf("MinAmount = %v", o.MinAmount)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOffer(pricing.Offer{ID: "x", Title: "X", Active: true, Priority: 2, Terms: tt.terms})
			if o.Type != tt.name {
				t.Errorf("Type = %q, want %q", o.Type, tt.name)
			}
			if o.ID != "x" || !o.Active || o.Priority != 2 {
				t.Errorf("common fields = %+v", o)
			}
			tt.check(t, o)
		})
	}
}
