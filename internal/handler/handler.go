// Package handler exposes the storefront over an HTTP JSON API. Handlers
// stay thin: decode the request, delegate to a domain service, map the
// result (or error) back onto the wire.
package handler

import (
	"net/http"

	"github.com/tastycart/storefront/internal/domain/account"
	"github.com/tastycart/storefront/internal/domain/auth"
	"github.com/tastycart/storefront/internal/domain/checkout"
	"github.com/tastycart/storefront/internal/domain/order"
	"github.com/tastycart/storefront/internal/domain/product"
)

// Handler holds the domain dependencies behind the HTTP surface.
type Handler struct {
	auth     *auth.Service
	cart     *account.Service
	products product.Repository
	checkout *checkout.Service
	orders   order.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	authSvc *auth.Service,
	cartSvc *account.Service,
	products product.Repository,
	checkoutSvc *checkout.Service,
	orders order.Repository,
) *Handler {
	return &Handler{
		auth:     authSvc,
		cart:     cartSvc,
		products: products,
		checkout: checkoutSvc,
		orders:   orders,
	}
}

// Routes registers every API route on the mux. Route shapes (and the
// /admin prefix for administrative operations) follow the original
// storefront contract.
func (h *Handler) Routes(mux *http.ServeMux) {
	// Authentication. Admin login shares the user path, parameterized by
	// required role; admin registration needs an existing admin token.
	mux.HandleFunc("POST /register", h.register(account.RoleUser))
	mux.HandleFunc("POST /login", h.login(""))
	mux.Handle("POST /admin/register", h.requireRole(account.RoleAdmin, h.register(account.RoleAdmin)))
	mux.HandleFunc("POST /admin/login", h.login(account.RoleAdmin))

	// Catalog reads are public.
	mux.HandleFunc("GET /product", h.listProducts)
	mux.HandleFunc("GET /product/{productId}", h.getProduct)

	// Catalog writes are admin-only.
	mux.Handle("POST /admin/product", h.requireRole(account.RoleAdmin, h.createProduct))
	mux.Handle("PUT /admin/product/{productId}", h.requireRole(account.RoleAdmin, h.updateProduct))
	mux.Handle("DELETE /admin/product/{productId}", h.requireRole(account.RoleAdmin, h.deleteProduct))

	// Cart and orders require an authenticated identity.
	mux.Handle("POST /cart", h.authenticated(h.addCartItem))
	mux.Handle("GET /cart", h.authenticated(h.getCart))
	mux.Handle("PATCH /cart/items/{itemId}", h.authenticated(h.updateCartItem))
	mux.Handle("DELETE /cart/{itemId}", h.authenticated(h.removeCartItem))

	mux.Handle("POST /orders", h.authenticated(h.directCheckout))
	mux.Handle("GET /orders", h.authenticated(h.listOrders))
	mux.Handle("GET /orders/recent", h.authenticated(h.recentOrder))

	// Processor-mediated checkout. Session status is polled by the
	// post-payment return page, before the client regains its token
	// context, so it is deliberately unauthenticated (the session id is
	// the capability).
	mux.Handle("POST /create-checkout-session", h.authenticated(h.createCheckoutSession))
	mux.HandleFunc("GET /session-status", h.sessionStatus)
}
