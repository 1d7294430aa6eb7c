// Package checkout orchestrates the two paths from a cart to an order: the
// direct flow (client-supplied payment metadata, kept as a legacy alias)
// and the canonical processor flow (hosted payment session plus status
// polling). Either way the order snapshot is appended and the cart cleared
// in a single persisted write.
package checkout

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/tastycart/storefront/internal/domain/order"
)

// Validation errors surfaced to clients.
var (
	ErrEmptyCart          = errors.New("cart is empty or not found")
	ErrMissingPaymentInfo = errors.New("payment information or shipping address missing")
)

// Session statuses reported by the payment processor.
const (
	SessionComplete = "complete"
	SessionOpen     = "open"
	SessionExpired  = "expired"
)

// SessionLine is one price line of a hosted checkout session. UnitAmount is
// in minor currency units (cents), rounded from the catalog price.
type SessionLine struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int
}

// CreateSessionRequest asks the processor for a hosted session. AccountID
// travels as opaque session metadata and comes back on status polls.
type CreateSessionRequest struct {
	AccountID string
	Lines     []SessionLine
}

// Session is the processor's handle for a newly created hosted session.
// ClientSecret is the client-side continuation the frontend embeds.
type Session struct {
	ID           string
	ClientSecret string
}

// SessionStatus is the processor's view of a session when polled.
type SessionStatus struct {
	ID              string
	Status          string
	AccountID       string
	CustomerEmail   string
	ShippingAddress string
	// AmountTotal is the processor-charged total in minor currency units.
	AmountTotal int64
}

// PaymentProvider is the external hosted-checkout processor.
type PaymentProvider interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*SessionStatus, error)
}

// Finalizer persists an order and clears the owning account's cart as one
// atomic write. When the order carries a session id that was already
// finalized, the write is a no-op and created is false.
type Finalizer interface {
	FinalizeOrder(ctx context.Context, o *order.Order) (created bool, err error)
}

// Notifier sends the post-payment confirmation message. Failures are
// logged by the orchestrator and never affect the order.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, email string, o *order.Order) error
}
