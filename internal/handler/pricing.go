package handler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"storefront-pricing/internal/clientinfo"
	"storefront-pricing/internal/model"
	"storefront-pricing/internal/pricing"
)

// handlePriceCart prices lines sent in the request body.
// POST /cart/price
func (h *Handler) handlePriceCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.PriceCartRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	calc, err := h.priceRequest(ctx, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "priced cart",
		slog.Int("lines", len(req.Lines)),
		slog.Int("applied_offers", len(calc.AppliedOffers)),
		slog.Float64("total", calc.Total),
	)

	h.writeJSON(w, http.StatusOK, calc)
}

// handleListOffers returns the current offer snapshot.
// GET /offers
func (h *Handler) handleListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.currentOffers()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, model.NewOfferList(offers))
}

// handleBestOffer returns the offer to badge a product with.
// GET /products/{id}/offer
func (h *Handler) handleBestOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := h.bestOffer(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, offer)
}

// priceRequest resolves and prices a PriceCartRequest. Shared by REST and MCP.
func (h *Handler) priceRequest(ctx context.Context, req model.PriceCartRequest) (model.Calculation, error) {
	fee := h.fee
	if req.DeliveryFee != nil {
		fee = *req.DeliveryFee
		if fee < 0 || math.IsNaN(fee) || math.IsInf(fee, 0) {
			return model.Calculation{}, model.NewValidationError("delivery_fee", "must be a non-negative amount")
		}
	}

	lines, err := h.resolveLines(ctx, req.Lines)
	if err != nil {
		return model.Calculation{}, err
	}
	calc, err := h.price(ctx, lines, fee)
	if err != nil {
		return model.Calculation{}, err
	}
	return model.NewCalculation(calc), nil
}

// price runs the engine against the current snapshot at the request's pricing instant.
func (h *Handler) price(ctx context.Context, lines []pricing.CartLine, fee float64) (pricing.CartCalculation, error) {
	offers, err := h.currentOffers()
	if err != nil {
		return pricing.CartCalculation{}, err
	}
	at := clientinfo.PricingInstant(ctx, h.now())
	return h.engine.CalculateCartAt(lines, offers, fee, at), nil
}

// bestOffer selects the badge offer for a product. Shared by REST and MCP.
func (h *Handler) bestOffer(ctx context.Context, productID string) (model.Offer, error) {
	if productID == "" {
		return model.Offer{}, model.NewValidationError("id", "product ID required")
	}

	products, err := h.products.Products(ctx, []string{productID})
	if err != nil {
		return model.Offer{}, model.NewUpstreamError("catalog", err)
	}
	product, ok := products[productID]
	if !ok {
		return model.Offer{}, model.NewNotFoundError("product " + productID)
	}

	offers, err := h.currentOffers()
	if err != nil {
		return model.Offer{}, err
	}
	best, ok := h.engine.BestOfferForProductAt(product, offers, clientinfo.PricingInstant(ctx, h.now()))
	if !ok {
		return model.Offer{}, model.NewNoOfferError(productID)
	}
	return model.NewOffer(best), nil
}

func (h *Handler) currentOffers() ([]pricing.Offer, error) {
	offers, loaded := h.offers.Offers()
	if !loaded {
		return nil, model.NewUnavailableError("offer catalog")
	}
	return offers, nil
}

// resolveLines validates requested lines and attaches catalog products.
func (h *Handler) resolveLines(ctx context.Context, reqs []model.LineRequest) ([]pricing.CartLine, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(reqs))
	for i, l := range reqs {
		if l.ProductID == "" {
			return nil, model.NewValidationError(fmt.Sprintf("lines[%d].product_id", i), "required")
		}
		if l.Quantity < 1 {
			return nil, model.NewValidationError(fmt.Sprintf("lines[%d].quantity", i), "must be at least 1")
		}
		ids = append(ids, l.ProductID)
	}

	products, err := h.products.Products(ctx, ids)
	if err != nil {
		return nil, model.NewUpstreamError("catalog", err)
	}

	lines := make([]pricing.CartLine, 0, len(reqs))
	for _, l := range reqs {
		product, ok := products[l.ProductID]
		if !ok {
			return nil, model.NewNotFoundError("product " + l.ProductID)
		}
		line := pricing.CartLine{Product: product, Quantity: l.Quantity}
		if l.VariantID != "" {
			variant, ok := product.Variant(l.VariantID)
			if !ok {
				return nil, model.NewNotFoundError("variant " + l.VariantID + " of product " + l.ProductID)
			}
			line.Variant = &variant
		}
		lines = append(lines, line)
	}
	return lines, nil
}
