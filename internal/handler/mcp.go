// MCP transport handler using the official MCP Go SDK.
// Exposes cart pricing and product badges as MCP tools for shopping assistants.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront-pricing/internal/model"
)

// === MCP Tool Input Types ===

// PriceCartInput is the input schema for the price_cart tool.
type PriceCartInput struct {
	Lines       []LineInput `json:"lines" jsonschema:"cart lines to price"`
	DeliveryFee *float64    `json:"delivery_fee,omitempty" jsonschema:"delivery fee before free-shipping offers; defaults to the store fee"`
}

// LineInput is one cart line in price_cart.
type LineInput struct {
	ProductID string `json:"product_id" jsonschema:"product ID"`
	VariantID string `json:"variant_id,omitempty" jsonschema:"selected variant ID"`
	Quantity  int    `json:"quantity" jsonschema:"quantity, at least 1"`
}

// BestOfferInput is the input schema for the best_offer tool.
type BestOfferInput struct {
	ProductID string `json:"product_id" jsonschema:"product ID"`
}

// BestOfferOutput is the result of the best_offer tool.
type BestOfferOutput struct {
	OfferID   string `json:"offer_id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	Priority  int    `json:"priority"`
	AutoApply bool   `json:"auto_apply" jsonschema:"whether the offer prices carts automatically"`
	EndsAt    string `json:"end_date,omitempty" jsonschema:"RFC 3339 end of the offer window"`
}

// NewMCPServer creates an MCP server with the pricing tools registered.
// The tools share their implementation with the REST routes.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront-pricing",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront pricing - promotional offers for the shop catalog. " +
				"Use these tools to price a cart or find the offer shown on a product.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "price_cart",
		Description: "Price cart lines with every auto-applied offer, free shipping included.",
	}, h.mcpPriceCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "best_offer",
		Description: "Get the highest priority offer currently valid for a product.",
	}, h.mcpBestOffer)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpPriceCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input PriceCartInput,
) (*mcp.CallToolResult, model.Calculation, error) {
	priceReq := model.PriceCartRequest{
		Lines:       make([]model.LineRequest, len(input.Lines)),
		DeliveryFee: input.DeliveryFee,
	}
	for i, l := range input.Lines {
		priceReq.Lines[i] = model.LineRequest(l)
	}

	calc, err := h.priceRequest(ctx, priceReq)
	if err != nil {
		return nil, model.Calculation{}, h.mcpError(err)
	}
	return nil, calc, nil
}

func (h *Handler) mcpBestOffer(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input BestOfferInput,
) (*mcp.CallToolResult, BestOfferOutput, error) {
	if input.ProductID == "" {
		return nil, BestOfferOutput{}, fmt.Errorf("product_id is required")
	}

	offer, err := h.bestOffer(ctx, input.ProductID)
	if err != nil {
		return nil, BestOfferOutput{}, h.mcpError(err)
	}

	out := BestOfferOutput{
		OfferID:   offer.ID,
		Title:     offer.Title,
		Type:      offer.Type,
		Priority:  offer.Priority,
		AutoApply: offer.AutoApply,
	}
	if offer.EndsAt != nil {
		out.EndsAt = offer.EndsAt.UTC().Format(time.RFC3339)
	}
	return nil, out, nil
}

// mcpError converts errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode != http.StatusInternalServerError {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
