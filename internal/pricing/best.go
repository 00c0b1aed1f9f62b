package pricing

import "time"

// BestOfferForProduct returns the highest-priority offer that is valid and covers the
// product, regardless of auto-apply or kind. Used for product badges.
func (e *Engine) BestOfferForProduct(p Product, offers []Offer) (Offer, bool) {
	return e.bestOffer(p, offers, e.now())
}

// BestOfferForProductAt selects the best offer as of the given instant.
func (e *Engine) BestOfferForProductAt(p Product, offers []Offer, at time.Time) (Offer, bool) {
	return e.bestOffer(p, offers, at)
}

// BestOfferForProduct is the catalog-order tie-break variant of Engine.BestOfferForProduct.
func BestOfferForProduct(p Product, offers []Offer, now time.Time) (Offer, bool) {
	var e Engine
	return e.bestOffer(p, offers, now)
}

func (e *Engine) bestOffer(p Product, offers []Offer, now time.Time) (Offer, bool) {
	var best Offer
	found := false
	for _, o := range offers {
		if !IsValid(o, now) || !IsApplicable(o, p.ID, p.CategoryID) {
			continue
		}
		// Strict comparison keeps the earliest of equal candidates, matching a stable sort.
		if !found || e.before(o, best) {
			best = o
			found = true
		}
	}
	return best, found
}
