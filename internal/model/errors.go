package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrConflict        = errors.New("conflict")
	ErrUnavailable     = errors.New("unavailable")
	ErrUpstreamError   = errors.New("upstream error")
	ErrUpgradeRequired = errors.New("upgrade required")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// NewNoOfferError is the 404 returned when a product has no applicable offer.
func NewNoOfferError(productID string) *APIError {
	return &APIError{
		Code:       "NO_OFFER",
		Message:    fmt.Sprintf("no offer applies to product %s", productID),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: http.StatusBadRequest,
		Err:        ErrInvalidRequest,
	}
}

// NewConflictError creates a 409 error, e.g. an idempotency key reused for a different cart.
func NewConflictError(reason string) *APIError {
	return &APIError{
		Code:       "CONFLICT",
		Message:    reason,
		StatusCode: http.StatusConflict,
		Err:        ErrConflict,
	}
}

// NewUnavailableError creates a 503 error when a dependency is not ready yet,
// such as an offer catalog that has never loaded.
func NewUnavailableError(what string) *APIError {
	return &APIError{
		Code:       "UNAVAILABLE",
		Message:    fmt.Sprintf("%s is not available, please retry later", what),
		StatusCode: http.StatusServiceUnavailable,
		Err:        ErrUnavailable,
	}
}

// NewUpstreamError creates a 502 error for backend failures.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: http.StatusBadGateway,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, err),
	}
}

// NewUpgradeRequiredError creates a 426 error for storefront clients below the
// minimum supported version.
func NewUpgradeRequiredError(app, minVersion string) *APIError {
	return &APIError{
		Code:       "CLIENT_UPGRADE_REQUIRED",
		Message:    fmt.Sprintf("%s client must be at least %s", app, minVersion),
		StatusCode: http.StatusUpgradeRequired,
		Err:        ErrUpgradeRequired,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
