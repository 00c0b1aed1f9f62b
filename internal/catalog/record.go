// Package catalog loads offers and products for the pricing engine.
//
// Offers are stored as flat rows where every type-specific column is nullable.
// DecodeOffer turns a row into a pricing.Offer with exactly the terms its type needs.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"storefront-pricing/internal/pricing"
)

var (
	// ErrMalformedOffer is returned when a row lacks a field its type requires.
	ErrMalformedOffer = errors.New("malformed offer")
	// ErrUnknownOfferType is returned for a type tag the engine does not know.
	ErrUnknownOfferType = errors.New("unknown offer type")
)

// OfferRecord is one row of the offers table.
type OfferRecord struct {
	ID                   string
	Title                string
	Type                 string
	IsActive             bool
	StartDate            sql.NullTime
	EndDate              sql.NullTime
	Priority             int
	AutoApply            bool
	ApplicableProducts   pq.StringArray
	ApplicableCategories pq.StringArray
	DiscountPercentage   sql.NullFloat64
	DiscountAmount       sql.NullFloat64
	MinQuantity          sql.NullInt64
	FreeQuantity         sql.NullInt64
	MinAmount            sql.NullFloat64
}

// DecodeOffer converts a row into an engine offer.
// Out-of-range values such as a 150% discount decode fine; the engine treats them
// as not applicable.
func DecodeOffer(r OfferRecord) (pricing.Offer, error) {
	terms, err := decodeTerms(r)
	if err != nil {
		return pricing.Offer{}, fmt.Errorf("offer %s: %w", r.ID, err)
	}
	o := pricing.Offer{
		ID:         r.ID,
		Title:      r.Title,
		Active:     r.IsActive,
		StartsAt:   nullTime(r.StartDate),
		EndsAt:     nullTime(r.EndDate),
		Priority:   r.Priority,
		AutoApply:  r.AutoApply,
		Products:   nonEmpty(r.ApplicableProducts),
		Categories: nonEmpty(r.ApplicableCategories),
		Terms:      terms,
	}
	return o, nil
}

func decodeTerms(r OfferRecord) (pricing.Terms, error) {
	switch pricing.Kind(r.Type) {
	case pricing.KindPercentage:
		if !r.DiscountPercentage.Valid {
			return nil, missing("discount_percentage")
		}
		return pricing.Percentage{Percent: r.DiscountPercentage.Float64}, nil
	case pricing.KindCategoryDiscount:
		if !r.DiscountPercentage.Valid {
			return nil, missing("discount_percentage")
		}
		return pricing.CategoryDiscount{Percent: r.DiscountPercentage.Float64}, nil
	case pricing.KindFixed:
		if !r.DiscountAmount.Valid {
			return nil, missing("discount_amount")
		}
		return pricing.Fixed{Amount: r.DiscountAmount.Float64}, nil
	case pricing.KindBuyXGetY:
		if !r.MinQuantity.Valid {
			return nil, missing("min_quantity")
		}
		if !r.FreeQuantity.Valid {
			return nil, missing("free_quantity")
		}
		return pricing.BuyXGetY{Buy: int(r.MinQuantity.Int64), Free: int(r.FreeQuantity.Int64)}, nil
	case pricing.KindBOGO:
		return pricing.BOGO{}, nil
	case pricing.KindFreeShipping:
		if !r.MinAmount.Valid {
			return nil, missing("min_amount")
		}
		return pricing.FreeShipping{MinAmount: r.MinAmount.Float64}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOfferType, r.Type)
	}
}

func missing(field string) error {
	return fmt.Errorf("%w: %s is required", ErrMalformedOffer, field)
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// nonEmpty maps empty arrays to nil so the offer reads as universal.
func nonEmpty(ids pq.StringArray) []string {
	if len(ids) == 0 {
		return nil
	}
	return []string(ids)
}
