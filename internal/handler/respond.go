package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/tastycart/storefront/internal/domain/account"
	"github.com/tastycart/storefront/internal/domain/auth"
	"github.com/tastycart/storefront/internal/domain/checkout"
	"github.com/tastycart/storefront/internal/domain/order"
	"github.com/tastycart/storefront/internal/domain/product"
)

// writeJSON encodes data as the response body with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zctx.From(r.Context()).Error("encode response", zap.Error(err))
	}
}

// writeError responds with the original API's error shape.
func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, map[string]string{"message": message})
}

// respondError maps a domain error onto the API error taxonomy: validation
// and conflicts 400, bad tokens 401, missing things 404, lost write races
// 409, everything else a generic 500 with the cause logged server-side.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		writeError(w, r, http.StatusBadRequest, "All fields are required")
	case errors.Is(err, account.ErrConflict):
		writeError(w, r, http.StatusBadRequest, "Username or Email already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, account.ErrInvalidQuantity):
		writeError(w, r, http.StatusBadRequest, "Valid quantity is required (must be at least 1)")
	case errors.Is(err, account.ErrItemNotFound):
		writeError(w, r, http.StatusNotFound, "Item not found in cart")
	case errors.Is(err, account.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "User not found")
	case errors.Is(err, product.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "Product not found")
	case errors.Is(err, product.ErrNameRequired), errors.Is(err, product.ErrNegativePrice):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, r, http.StatusBadRequest, "Cart is empty or not found")
	case errors.Is(err, checkout.ErrMissingPaymentInfo):
		writeError(w, r, http.StatusBadRequest, "Payment information or shipping address missing")
	case errors.Is(err, order.ErrNoOrders):
		writeError(w, r, http.StatusNotFound, "No orders found")
	case errors.Is(err, account.ErrVersionConflict):
		writeError(w, r, http.StatusConflict, "Cart was modified concurrently, please retry")
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}
