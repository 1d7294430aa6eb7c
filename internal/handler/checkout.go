package handler

import (
	"encoding/json"
	"net/http"
)

type checkoutRequest struct {
	ShippingAddress string `json:"shippingAddress"`
	PaymentMethod   string `json:"paymentMethod"`
}

// directCheckout is the legacy direct flow: the client supplies shipping
// and payment metadata and the order is finalized immediately. The
// processor-verified flow below is the canonical contract.
func (h *Handler) directCheckout(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	o, err := h.checkout.Checkout(r.Context(), id.AccountID, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]any{
		"message": "Order created successfully",
		"order":   o,
	})
}

// listOrders returns the caller's full order history in insertion order.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	orders, err := h.orders.ListByAccount(r.Context(), id.AccountID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"count":  len(orders),
		"orders": orders,
	})
}

// recentOrder returns the caller's most recent order, or an empty result
// when the history is empty.
func (h *Handler) recentOrder(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	o, err := h.orders.MostRecent(r.Context(), id.AccountID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if o == nil {
		writeJSON(w, r, http.StatusOK, map[string]any{"order": nil})
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"order": o})
}

// createCheckoutSession starts the hosted payment flow and hands the
// client the session continuation secret.
func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	sess, err := h.checkout.CreateSession(r.Context(), id.AccountID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{
		"clientSecret": sess.ClientSecret,
	})
}

// sessionStatus polls the processor for a session and, on completion,
// returns the finalized order alongside the status.
func (h *Handler) sessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, r, http.StatusBadRequest, "session_id is required")
		return
	}

	res, err := h.checkout.ResolveSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":         res.Status,
		"customer_email": res.CustomerEmail,
		"order":          res.Order,
	})
}
