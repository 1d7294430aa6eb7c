// Package payment implements the hosted-checkout client for the external
// payment processor (Stripe-shaped REST API). Only the two calls the
// storefront needs are covered: creating an embedded checkout session and
// polling its status.
package payment

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/guonaihong/gout"

	"github.com/tastycart/storefront/internal/domain/checkout"
)

// DefaultBaseURL is the processor's production endpoint. Tests point the
// client at an httptest server instead.
const DefaultBaseURL = "https://api.stripe.com"

// Config holds the externally injected processor settings. The API key is
// never embedded in source.
type Config struct {
	// APIKey is the processor secret key.
	APIKey string
	// BaseURL overrides the processor endpoint; empty means DefaultBaseURL.
	BaseURL string
	// Currency is the ISO 4217 code used for all price lines.
	Currency string
	// ReturnURL is where the hosted flow sends the customer afterwards;
	// it may contain the {CHECKOUT_SESSION_ID} placeholder.
	ReturnURL string
	// ShippingCountries limits where the processor collects shipping
	// addresses for.
	ShippingCountries []string
}

// Client talks to the processor. It implements checkout.PaymentProvider.
type Client struct {
	cfg Config
}

var _ checkout.PaymentProvider = (*Client)(nil)

// NewClient creates a processor client from injected configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Currency == "" {
		cfg.Currency = "cad"
	}
	if len(cfg.ShippingCountries) == 0 {
		cfg.ShippingCountries = []string{"CA"}
	}
	return &Client{cfg: cfg}
}

// sessionResponse mirrors the subset of the processor's session object the
// storefront reads.
type sessionResponse struct {
	ID              string            `json:"id"`
	ClientSecret    string            `json:"client_secret"`
	Status          string            `json:"status"`
	AmountTotal     int64             `json:"amount_total"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	ShippingDetails struct {
		Address struct {
			Line1 string `json:"line1"`
		} `json:"address"`
	} `json:"shipping_details"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateSession requests an embedded-mode hosted checkout session with one
// price line per cart item and the account id stored as session metadata.
func (c *Client) CreateSession(ctx context.Context, req checkout.CreateSessionRequest) (*checkout.Session, error) {
	form := gout.H{
		"ui_mode":                "embedded",
		"mode":                   "payment",
		"return_url":             c.cfg.ReturnURL,
		"automatic_tax[enabled]": "true",
		"metadata[account_id]":   req.AccountID,
	}
	for i, country := range c.cfg.ShippingCountries {
		form[fmt.Sprintf("shipping_address_collection[allowed_countries][%d]", i)] = country
	}
	for i, line := range req.Lines {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form[prefix+"[price_data][currency]"] = c.cfg.Currency
		form[prefix+"[price_data][product_data][name]"] = line.Name
		if line.Description != "" {
			form[prefix+"[price_data][product_data][description]"] = line.Description
		}
		form[prefix+"[price_data][unit_amount]"] = strconv.FormatInt(line.UnitAmount, 10)
		form[prefix+"[quantity]"] = strconv.Itoa(line.Quantity)
	}

	var (
		resp sessionResponse
		code int
	)
	err := gout.POST(c.cfg.BaseURL + "/v1/checkout/sessions").
		WithContext(ctx).
		SetHeader(gout.H{"Authorization": "Bearer " + c.cfg.APIKey}).
		SetWWWForm(form).
		BindJSON(&resp).
		Code(&code).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "create session request")
	}
	if code != http.StatusOK {
		return nil, errors.Errorf("create session: processor returned %d: %s", code, resp.Error.Message)
	}

	return &checkout.Session{ID: resp.ID, ClientSecret: resp.ClientSecret}, nil
}

// GetSession polls a session's status.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*checkout.SessionStatus, error) {
	var (
		resp sessionResponse
		code int
	)
	err := gout.GET(c.cfg.BaseURL + "/v1/checkout/sessions/" + sessionID).
		WithContext(ctx).
		SetHeader(gout.H{"Authorization": "Bearer " + c.cfg.APIKey}).
		BindJSON(&resp).
		Code(&code).
		Do()
	if err != nil {
		return nil, errors.Wrap(err, "retrieve session request")
	}
	if code != http.StatusOK {
		return nil, errors.Errorf("retrieve session: processor returned %d: %s", code, resp.Error.Message)
	}

	return &checkout.SessionStatus{
		ID:              resp.ID,
		Status:          resp.Status,
		AccountID:       resp.Metadata["account_id"],
		CustomerEmail:   resp.CustomerDetails.Email,
		ShippingAddress: resp.ShippingDetails.Address.Line1,
		AmountTotal:     resp.AmountTotal,
	}, nil
}
