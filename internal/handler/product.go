package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tastycart/storefront/internal/domain/product"
)

// productJSON is the wire shape of a catalog item, field names per the
// original storefront API.
type productJSON struct {
	ID          string          `json:"id"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
	Image       string          `json:"image,omitempty"`
}

func toProductJSON(p product.Product) productJSON {
	return productJSON{
		ID:          p.ID,
		ProductName: p.Name,
		Price:       p.Price,
		Description: p.Description,
		Quantity:    p.Quantity,
		Category:    p.Category,
		Image:       p.Image,
	}
}

// listProducts returns the catalog, optionally filtered by the category
// query parameter. A category with no products is reported as 404, not an
// empty list.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	var (
		products []product.Product
		message  string
		err      error
	)
	if category == "" {
		products, err = h.products.List(r.Context())
		message = "All products retrieved"
	} else {
		products, err = h.products.ListByCategory(r.Context(), category)
		message = fmt.Sprintf("Products in category: %s", category)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	if category != "" && len(products) == 0 {
		writeError(w, r, http.StatusNotFound, fmt.Sprintf("No products found in category: %s", category))
		return
	}

	out := make([]productJSON, len(products))
	for i, p := range products {
		out[i] = toProductJSON(p)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"message":  message,
		"count":    len(out),
		"products": out,
	})
}

// getProduct returns a single product by ID.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("productId"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"message": "Product found",
		"product": toProductJSON(*p),
	})
}

// createProduct adds a catalog item. Admin only.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	p := &product.Product{
		ID:          uuid.New().String(),
		Name:        req.ProductName,
		Price:       req.Price,
		Description: req.Description,
		Quantity:    req.Quantity,
		Category:    req.Category,
		Image:       req.Image,
	}
	if err := p.Validate(); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.products.Create(r.Context(), p); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]any{
		"message": "Product created successfully",
		"product": toProductJSON(*p),
	})
}

// productPatch mirrors productJSON with optional fields for partial
// updates: only submitted fields change.
type productPatch struct {
	ProductName *string          `json:"productName"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Quantity    *int             `json:"quantity"`
	Category    *string          `json:"category"`
	Image       *string          `json:"image"`
}

// updateProduct applies a partial update to a catalog item. Admin only.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	p, err := h.products.GetByID(r.Context(), r.PathValue("productId"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	patch := product.Patch{
		Name:        req.ProductName,
		Price:       req.Price,
		Description: req.Description,
		Quantity:    req.Quantity,
		Category:    req.Category,
		Image:       req.Image,
	}
	if err := patch.Apply(p); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.products.Update(r.Context(), p); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"message": "Product updated successfully",
		"product": toProductJSON(*p),
	})
}

// deleteProduct removes a catalog item. Admin only. The removed product is
// echoed back for the admin dashboard.
func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("productId")

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"message":        "Product removed successfully",
		"deletedProduct": toProductJSON(*p),
	})
}
