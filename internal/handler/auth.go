package handler

import (
	"encoding/json"
	"net/http"

	"github.com/tastycart/storefront/internal/domain/account"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  account.Public `json:"user"`
}

// register creates an account with the given role. The user and admin
// registration routes share this handler.
func (h *Handler) register(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		if _, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password, role); err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, r, http.StatusCreated, map[string]string{
			"message": "User registered successfully",
		})
	}
}

// login verifies credentials, requiring the given role for the admin
// route, and returns the issued token plus the public account projection.
// The token also travels as an HttpOnly cookie for the browser frontend.
func (h *Handler) login(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}

		result, err := h.auth.Login(r.Context(), req.Username, req.Password, role)
		if err != nil {
			respondError(w, r, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "token",
			Value:    result.Token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, r, http.StatusOK, loginResponse{
			Token: result.Token,
			User:  result.Account,
		})
	}
}
