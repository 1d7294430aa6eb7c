package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/tastycart/storefront/internal/domain/account"
)

// ErrNoOrders is returned when an account has no order history yet.
var ErrNoOrders = errors.New("no orders found")

// Order captures a point-in-time snapshot of a cart at checkout. Once
// written it is immutable: the store exposes no update or delete surface.
type Order struct {
	ID              string             `json:"id"`
	AccountID       string             `json:"-"`
	Items           []account.CartItem `json:"orderItems"`
	ShippingAddress string             `json:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod"`
	TotalPrice      decimal.Decimal    `json:"totalPrice"`
	IsPaid          bool               `json:"isPaid"`
	PaidAt          time.Time          `json:"paidAt,omitzero"`
	// SessionID links a processor-finalized order back to its hosted
	// checkout session; it doubles as the idempotency key that keeps
	// repeated status polls from duplicating the order.
	SessionID string    `json:"-"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// Repository defines the append-only order history.
type Repository interface {
	// ListByAccount returns the full history in insertion order, or
	// ErrNoOrders when the account has none.
	ListByAccount(ctx context.Context, accountID string) ([]Order, error)
	// MostRecent returns the latest order, or nil when the account has none.
	MostRecent(ctx context.Context, accountID string) (*Order, error)
	// BySessionID returns the order finalized from the given checkout
	// session, or nil when no such order exists.
	BySessionID(ctx context.Context, sessionID string) (*Order, error)
}
