package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tastycart/storefront/internal/domain/account"
)

// cartItemRequest is the body of POST /cart: a product copied into the
// cart by value, fields per the original storefront API. Quantity below 1
// defaults to 1.
type cartItemRequest struct {
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

// addCartItem appends a line item to the caller's cart.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	cart, err := h.cart.AddItem(r.Context(), id.AccountID, account.CartItem{
		ProductName: req.ProductName,
		Price:       req.Price,
		Description: req.Description,
		Quantity:    req.Quantity,
		Category:    req.Category,
		Image:       req.Image,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"message": "product added to cart successfully",
		"cart":    cart,
	})
}

// getCart returns the caller's cart, the empty shape included.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	cart, err := h.cart.GetCart(r.Context(), id.AccountID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"message": "Cart retrieved successfully",
		"cart":    cart,
	})
}

// updateCartItem changes the quantity of one line item.
func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	cart, err := h.cart.UpdateItemQuantity(r.Context(), id.AccountID, r.PathValue("itemId"), req.Quantity)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"message": "Cart item quantity updated successfully",
		"cart":    cart,
	})
}

// removeCartItem deletes one line item.
func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())

	cart, err := h.cart.RemoveItem(r.Context(), id.AccountID, r.PathValue("itemId"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"message": "Item removed from cart successfully",
		"cart":    cart,
	})
}
