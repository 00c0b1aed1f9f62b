package pricing

import (
	"testing"
	"time"
)

func TestBestOfferForProduct(t *testing.T) {
	product := Product{ID: "P1", CategoryID: "C1", Price: 80}

	scoped := Offer{ID: "scoped", Active: true, Priority: 3, Products: []string{"P1"}, Terms: Percentage{Percent: 5}}
	category := Offer{ID: "category", Active: true, Priority: 7, Categories: []string{"C1"}, Terms: CategoryDiscount{Percent: 10}}
	other := Offer{ID: "other", Active: true, Priority: 99, Products: []string{"P2"}, Terms: Fixed{Amount: 10}}
	expired := Offer{ID: "expired", Active: true, Priority: 50, EndsAt: timePtr(testNow.Add(-time.Hour)), Terms: BOGO{}}
	inactive := Offer{ID: "inactive", Priority: 60, Terms: BOGO{}}
	shipping := Offer{ID: "shipping", Active: true, Priority: 5, Terms: FreeShipping{MinAmount: 100}}

	tests := []struct {
		name   string
		offers []Offer
		wantID string
		wantOK bool
	}{
		{"no offers", nil, "", false},
		{"only other products", []Offer{other}, "", false},
		{"highest priority wins", []Offer{scoped, category, other}, "category", true},
		{"invalid offers ignored", []Offer{expired, inactive, scoped}, "scoped", true},
		{"type ignored", []Offer{scoped, shipping}, "shipping", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BestOfferForProduct(product, tt.offers, testNow)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", got.ID, tt.wantID)
			}
		})
	}
}

func TestBestOfferForProductTies(t *testing.T) {
	product := Product{ID: "P1"}
	offers := []Offer{
		{ID: "zeta", Active: true, Priority: 4, Terms: BOGO{}},
		{ID: "alpha", Active: true, Priority: 4, Terms: BOGO{}},
	}

	if got, _ := BestOfferForProduct(product, offers, testNow); got.ID != "zeta" {
		t.Errorf("catalog order tie-break = %s, want zeta", got.ID)
	}

	e := &Engine{Now: func() time.Time { return testNow }, TieBreakByID: true}
	if got, _ := e.BestOfferForProduct(product, offers); got.ID != "alpha" {
		t.Errorf("id tie-break = %s, want alpha", got.ID)
	}
}

func TestBestOfferForProductAt(t *testing.T) {
	product := Product{ID: "P1"}
	later := testNow.Add(48 * time.Hour)
	offers := []Offer{
		{ID: "now", Active: true, Priority: 1, Terms: BOGO{}},
		{ID: "scheduled", Active: true, Priority: 9, StartsAt: timePtr(later), Terms: BOGO{}},
	}

	e := &Engine{Now: func() time.Time { return testNow }}
	if got, _ := e.BestOfferForProduct(product, offers); got.ID != "now" {
		t.Errorf("current best = %s, want now", got.ID)
	}
	if got, _ := e.BestOfferForProductAt(product, offers, later); got.ID != "scheduled" {
		t.Errorf("preview best = %s, want scheduled", got.ID)
	}
}
