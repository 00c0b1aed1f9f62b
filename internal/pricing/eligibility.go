package pricing

import "time"

// IsValid reports whether the offer is active and now falls inside its window.
// Both window bounds are inclusive; a missing bound is open-ended.
func IsValid(o Offer, now time.Time) bool {
	if !o.Active {
		return false
	}
	if o.StartsAt != nil && now.Before(*o.StartsAt) {
		return false
	}
	if o.EndsAt != nil && now.After(*o.EndsAt) {
		return false
	}
	return true
}

// IsApplicable reports whether the offer covers a product in the given category.
// An offer with neither products nor categories covers everything.
func IsApplicable(o Offer, productID, categoryID string) bool {
	if len(o.Products) == 0 && len(o.Categories) == 0 {
		return true
	}
	for _, id := range o.Products {
		if id == productID {
			return true
		}
	}
	for _, id := range o.Categories {
		if id == categoryID {
			return true
		}
	}
	return false
}

// applicableLines returns the lines in scope for the offer, preserving cart order.
func applicableLines(o Offer, lines []CartLine) []CartLine {
	var out []CartLine
	for _, line := range lines {
		if IsApplicable(o, line.Product.ID, line.Product.CategoryID) {
			out = append(out, line)
		}
	}
	return out
}
