package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/tastycart/storefront/internal/domain/auth"
)

// identityKey is the context key for the authenticated identity.
type identityKey struct{}

// IdentityFromContext extracts the authenticated identity from the request
// context. It returns nil when the request was not authenticated.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	if id, ok := ctx.Value(identityKey{}).(*auth.Identity); ok {
		return id
	}
	return nil
}

// bearerToken extracts the token from the Authorization header or, failing
// that, from the same-named cookie the browser frontend uses.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie("token"); err == nil {
		return c.Value
	}
	return ""
}

// authenticated verifies the bearer token and attaches the identity it
// proves to the request context. Missing, invalid, and expired tokens all
// produce 401.
func (h *Handler) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized access")
			return
		}

		id, err := h.auth.Verify(raw)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole authenticates and additionally rejects identities that do
// not hold the given role.
func (h *Handler) requireRole(role string, next http.HandlerFunc) http.Handler {
	return h.authenticated(func(w http.ResponseWriter, r *http.Request) {
		id := IdentityFromContext(r.Context())
		if id == nil || id.Role != role {
			writeError(w, r, http.StatusForbidden, "Forbidden: Admin access only")
			return
		}
		next.ServeHTTP(w, r)
	})
}
