package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"storefront-pricing/internal/model"
	"storefront-pricing/internal/orders"
	"storefront-pricing/internal/reconcile"
)

// IdempotencyHeader carries the client's idempotency key for order placement.
const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// handleGetCart returns the stored cart. Unknown carts are empty.
// GET /carts/{id}
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := r.PathValue("id")

	lines, err := h.carts.Lines(ctx, cartID)
	if err != nil {
		h.writeError(w, model.NewUpstreamError("cart store", err))
		return
	}

	h.writeJSON(w, http.StatusOK, model.Cart{ID: cartID, Lines: toLineRequests(lines)})
}

// handleReplaceCart sets the full cart contents. Lines with quantity 0 or less
// are removed; repeated lines are merged.
// PUT /carts/{id}
func (h *Handler) handleReplaceCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := r.PathValue("id")

	var req model.CartRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	desired := make([]reconcile.Line, 0, len(req.Lines))
	for i, l := range req.Lines {
		if l.ProductID == "" {
			h.writeError(w, model.NewValidationError(fmt.Sprintf("lines[%d].product_id", i), "required"))
			return
		}
		desired = append(desired, reconcile.Line{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity})
	}
	desired = reconcile.Normalize(desired)

	// Unknown products are rejected here so a stored cart always prices.
	if _, err := h.resolveLines(ctx, toLineRequests(desired)); err != nil {
		h.writeError(w, err)
		return
	}

	diff, err := h.carts.Replace(ctx, cartID, desired)
	if err != nil {
		h.writeError(w, model.NewUpstreamError("cart store", err))
		return
	}

	h.logger.InfoContext(ctx, "replaced cart",
		slog.String("cart_id", cartID),
		slog.Int("added", len(diff.ToAdd)),
		slog.Int("updated", len(diff.ToUpdate)),
		slog.Int("removed", len(diff.ToRemove)),
	)

	h.writeJSON(w, http.StatusOK, model.Cart{ID: cartID, Lines: toLineRequests(desired)})
}

// handlePriceStoredCart prices the stored cart with the configured delivery fee.
// GET /carts/{id}/price
func (h *Handler) handlePriceStoredCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := r.PathValue("id")

	stored, err := h.carts.Lines(ctx, cartID)
	if err != nil {
		h.writeError(w, model.NewUpstreamError("cart store", err))
		return
	}

	calc, err := h.priceRequest(ctx, model.PriceCartRequest{Lines: toLineRequests(stored)})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, calc)
}

// handlePlaceOrder prices the stored cart, places the order and clears the cart.
// A repeated Idempotency-Key returns the original order with 200.
// POST /carts/{id}/orders
func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cartID := r.PathValue("id")

	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	if key == "" {
		h.writeError(w, model.NewValidationError(IdempotencyHeader, "header required"))
		return
	}
	if len(key) > maxIdempotencyKeyLength {
		h.writeError(w, model.NewValidationError(IdempotencyHeader, "too long"))
		return
	}

	stored, err := h.carts.Lines(ctx, cartID)
	if err != nil {
		h.writeError(w, model.NewUpstreamError("cart store", err))
		return
	}
	lines, err := h.resolveLines(ctx, toLineRequests(stored))
	if err != nil {
		h.writeError(w, err)
		return
	}
	calc, err := h.price(ctx, lines, h.fee)
	if err != nil {
		h.writeError(w, err)
		return
	}

	res, err := h.orders.Place(ctx, orders.PlaceOrder{
		CartID:         cartID,
		IdempotencyKey: key,
		Lines:          lines,
		Calculation:    calc,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := http.StatusOK
	if !res.Replayed {
		status = http.StatusCreated
		if err := h.carts.Clear(ctx, cartID); err != nil {
			h.logger.WarnContext(ctx, "failed to clear cart after order",
				slog.String("cart_id", cartID),
				slog.String("order_id", res.Order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	h.writeJSON(w, status, model.PlaceOrderResponse{
		Order:    res.Order,
		Summary:  res.Summary,
		Replayed: res.Replayed,
	})
}

func toLineRequests(lines []reconcile.Line) []model.LineRequest {
	out := make([]model.LineRequest, 0, len(lines))
	for _, l := range lines {
		out = append(out, model.LineRequest{ProductID: l.ProductID, VariantID: l.VariantID, Quantity: l.Quantity})
	}
	return out
}
