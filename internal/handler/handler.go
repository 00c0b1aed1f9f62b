// Package handler provides the REST and MCP surface of the pricing service.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"storefront-pricing/internal/model"
	"storefront-pricing/internal/orders"
	"storefront-pricing/internal/pricing"
	"storefront-pricing/internal/reconcile"
)

// OfferSource returns the current offer snapshot and whether it has loaded.
type OfferSource interface {
	Offers() ([]pricing.Offer, bool)
}

// ProductSource resolves products by ID. Unknown IDs are absent from the result.
type ProductSource interface {
	Products(ctx context.Context, ids []string) (map[string]pricing.Product, error)
}

// CartStore holds cart lines between requests.
type CartStore interface {
	Lines(ctx context.Context, cartID string) ([]reconcile.Line, error)
	Replace(ctx context.Context, cartID string, desired []reconcile.Line) (*reconcile.LineDiff, error)
	Clear(ctx context.Context, cartID string) error
}

// OrderPlacer turns priced carts into orders.
type OrderPlacer interface {
	Place(ctx context.Context, req orders.PlaceOrder) (*orders.Result, error)
}

// Deps are the collaborators of Handler. Carts and Orders may be nil, which
// leaves the cart and order routes unregistered.
type Deps struct {
	Offers          OfferSource
	Products        ProductSource
	Carts           CartStore
	Orders          OrderPlacer
	Engine          *pricing.Engine
	BaseDeliveryFee float64
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	offers   OfferSource
	products ProductSource
	carts    CartStore
	orders   OrderPlacer
	engine   *pricing.Engine
	fee      float64
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a new Handler.
func New(d Deps, logger *slog.Logger) *Handler {
	h := &Handler{
		offers:   d.Offers,
		products: d.Products,
		carts:    d.Carts,
		orders:   d.Orders,
		engine:   d.Engine,
		fee:      d.BaseDeliveryFee,
		now:      d.Now,
		logger:   logger,
	}
	if h.engine == nil {
		h.engine = &pricing.Engine{}
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /cart/price", h.handlePriceCart)
	mux.HandleFunc("GET /offers", h.handleListOffers)
	mux.HandleFunc("GET /products/{id}/offer", h.handleBestOffer)

	if h.carts != nil {
		mux.HandleFunc("GET /carts/{id}", h.handleGetCart)
		mux.HandleFunc("PUT /carts/{id}", h.handleReplaceCart)
		mux.HandleFunc("GET /carts/{id}/price", h.handlePriceStoredCart)
		if h.orders != nil {
			mux.HandleFunc("POST /carts/{id}/orders", h.handlePlaceOrder)
		}
	}

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleHealth reports liveness and whether the offer catalog has loaded.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, loaded := h.offers.Offers()
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", CatalogLoaded: loaded})
}

type healthResponse struct {
	Status        string `json:"status"`
	CatalogLoaded bool   `json:"catalog_loaded"`
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	apiErr := h.apiError(err)
	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// apiError maps err onto an APIError. Unexpected errors are logged and hidden.
func (h *Handler) apiError(err error) *model.APIError {
	var apiErr *model.APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= http.StatusInternalServerError {
			h.logger.Error("request failed", slog.String("error", err.Error()))
		}
		return apiErr
	case errors.Is(err, orders.ErrKeyConflict):
		return model.NewConflictError(err.Error())
	case errors.Is(err, orders.ErrEmptyCart):
		return model.NewValidationError("cart", "cart is empty")
	}
	h.logger.Error("internal error", slog.String("error", err.Error()))
	return model.NewInternalError(err)
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}
