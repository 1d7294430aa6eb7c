package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastycart/storefront/internal/domain/checkout"
)

func TestCreateSession(t *testing.T) {
	var gotForm url.Values
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","client_secret":"cs_test_1_secret"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{
		APIKey:    "sk_test",
		BaseURL:   srv.URL,
		ReturnURL: "https://shop.example/return?session_id={CHECKOUT_SESSION_ID}",
	})

	sess, err := c.CreateSession(context.Background(), checkout.CreateSessionRequest{
		AccountID: "acc1",
		Lines: []checkout.SessionLine{
			{Name: "Choc Chip", Description: "A delicious treat!", UnitAmount: 350, Quantity: 2},
			{Name: "Oatmeal", UnitAmount: 225, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", sess.ID)
	assert.Equal(t, "cs_test_1_secret", sess.ClientSecret)

	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, "embedded", gotForm.Get("ui_mode"))
	assert.Equal(t, "payment", gotForm.Get("mode"))
	assert.Equal(t, "acc1", gotForm.Get("metadata[account_id]"))
	assert.Equal(t, "Choc Chip", gotForm.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "350", gotForm.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "2", gotForm.Get("line_items[0][quantity]"))
	assert.Equal(t, "cad", gotForm.Get("line_items[1][price_data][currency]"))
	// Lines without a description must not send an empty description field.
	assert.NotContains(t, gotForm, "line_items[1][price_data][product_data][description]")
	assert.Equal(t, "CA", gotForm.Get("shipping_address_collection[allowed_countries][0]"))
}

func TestCreateSession_ProcessorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key provided"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "bad", BaseURL: srv.URL})

	_, err := c.CreateSession(context.Background(), checkout.CreateSessionRequest{AccountID: "acc1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "Invalid API Key provided")
}

func TestGetSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/checkout/sessions/cs_test_1", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cs_test_1",
			"status": "complete",
			"amount_total": 4250,
			"metadata": {"account_id": "acc1"},
			"customer_details": {"email": "alice@example.com"},
			"shipping_details": {"address": {"line1": "1 Main St"}}
		}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk_test", BaseURL: srv.URL})

	st, err := c.GetSession(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, &checkout.SessionStatus{
		ID:              "cs_test_1",
		Status:          "complete",
		AccountID:       "acc1",
		CustomerEmail:   "alice@example.com",
		ShippingAddress: "1 Main St",
		AmountTotal:     4250,
	}, st)
}

func TestGetSession_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"No such checkout session"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk_test", BaseURL: srv.URL})

	_, err := c.GetSession(context.Background(), "cs_missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No such checkout session")
}
