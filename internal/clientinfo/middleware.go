package clientinfo

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"storefront-pricing/internal/model"
)

// CodeInvalidHeader is the error code for an unparseable Storefront-Client header.
const CodeInvalidHeader = "INVALID_CLIENT_HEADER"

type contextKey string

const infoKey contextKey = "storefront.client"

// Middleware parses the Storefront-Client header and applies the version gate.
// Requests without the header pass through as anonymous.
func Middleware(gate *Gate, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get(HeaderName)
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			info, err := ParseHeader(header)
			if err != nil {
				logger.Warn("invalid Storefront-Client header",
					slog.String("header", header),
					slog.String("error", err.Error()))
				writeClientError(w, &model.APIError{
					Code:       CodeInvalidHeader,
					Message:    "invalid Storefront-Client header: " + err.Error(),
					StatusCode: http.StatusBadRequest,
					Err:        model.ErrInvalidRequest,
				})
				return
			}

			if minVersion, ok := gate.Check(info); !ok {
				writeClientError(w, model.NewUpgradeRequiredError(info.App, minVersion))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithInfo(r.Context(), info)))
		})
	}
}

// isExemptPath returns true for infrastructure paths.
func isExemptPath(path string) bool {
	return path == "/health" || path == "/healthz"
}

// writeClientError writes the standard error envelope.
func writeClientError(w http.ResponseWriter, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)

	resp := struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}{}
	resp.Error.Code = apiErr.Code
	resp.Error.Message = apiErr.Message

	json.NewEncoder(w).Encode(resp)
}

// WithInfo stores client info in ctx.
func WithInfo(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, infoKey, info)
}

// FromContext returns the client info stored by Middleware.
func FromContext(ctx context.Context) (Info, bool) {
	info, ok := ctx.Value(infoKey).(Info)
	return info, ok
}

// PricingInstant returns the admin preview instant when set, else now.
func PricingInstant(ctx context.Context, now time.Time) time.Time {
	if info, ok := FromContext(ctx); ok && info.Preview != nil {
		return *info.Preview
	}
	return now
}
