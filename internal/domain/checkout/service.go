package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tastycart/storefront/internal/domain/account"
	"github.com/tastycart/storefront/internal/domain/order"
)

// processorPaymentMethod is recorded on orders finalized through the
// hosted-session flow, where the client never supplies a method.
const processorPaymentMethod = "Stripe"

// fallbackShipping is recorded when the processor reports no shipping
// address on a completed session.
const fallbackShipping = "Not provided"

// Service is the checkout orchestrator.
type Service struct {
	accounts  account.Repository
	orders    order.Repository
	finalizer Finalizer
	payments  PaymentProvider
	notifier  Notifier
	now       func() time.Time
}

// NewService creates a checkout Service. notifier may be nil when no
// notification channel is configured.
func NewService(
	accounts account.Repository,
	orders order.Repository,
	finalizer Finalizer,
	payments PaymentProvider,
	notifier Notifier,
) *Service {
	return &Service{
		accounts:  accounts,
		orders:    orders,
		finalizer: finalizer,
		payments:  payments,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Checkout is the direct flow: trust the client-supplied shipping address
// and payment method, snapshot the cart into a paid order, and clear the
// cart in the same write.
//
// Legacy alias: the processor flow below is the canonical contract; this
// path survives for clients of the original API.
func (s *Service) Checkout(ctx context.Context, accountID, shippingAddress, paymentMethod string) (*order.Order, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if shippingAddress == "" || paymentMethod == "" {
		return nil, ErrMissingPaymentInfo
	}

	o := s.snapshot(a, shippingAddress, paymentMethod, a.Cart.PriceTotal, "")
	if _, err := s.finalizer.FinalizeOrder(ctx, o); err != nil {
		return nil, errors.Wrap(err, "finalize order")
	}
	return o, nil
}

// CreateSession builds one price line per cart item and requests a hosted
// payment session from the processor, embedding the account id as session
// metadata. Returns the session handle for the client to continue with.
func (s *Service) CreateSession(ctx context.Context, accountID string) (*Session, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if a.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	lines := make([]SessionLine, len(a.Cart.Items))
	for i, it := range a.Cart.Items {
		lines[i] = SessionLine{
			Name:        it.ProductName,
			Description: it.Description,
			UnitAmount:  minorUnits(it.Price),
			Quantity:    max(it.Quantity, 1),
		}
	}

	sess, err := s.payments.CreateSession(ctx, CreateSessionRequest{
		AccountID: a.ID,
		Lines:     lines,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create checkout session")
	}
	return sess, nil
}

// Resolution is the outcome of a session status poll.
type Resolution struct {
	Status        string
	CustomerEmail string
	// Order is the finalized order when the session completed and one
	// exists for it; nil while the session is still open.
	Order *order.Order
}

// ResolveSession polls the processor for session status. A completed
// session with valid account metadata finalizes the order exactly as the
// direct flow does, using the processor-reported shipping and amount, then
// fires the confirmation message best-effort.
//
// The call is idempotent: the order row carries the session id under a
// unique constraint, so repeated polls (including concurrent ones) observe
// the already-finalized order instead of creating another.
//
// Finalization errors after a successful payment are logged and swallowed;
// the client still receives the payment status.
func (s *Service) ResolveSession(ctx context.Context, sessionID string) (*Resolution, error) {
	st, err := s.payments.GetSession(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "retrieve session")
	}

	res := &Resolution{Status: st.Status, CustomerEmail: st.CustomerEmail}
	if st.Status != SessionComplete || st.AccountID == "" {
		return res, nil
	}

	o, err := s.finalizeFromSession(ctx, st)
	if err != nil {
		// Payment already succeeded; report it as such and leave the
		// failure in the logs.
		zctx.From(ctx).Error("finalize order after payment",
			zap.String("session_id", st.ID),
			zap.Error(err),
		)
		return res, nil
	}
	res.Order = o
	return res, nil
}

// finalizeFromSession turns a completed session into a persisted order, or
// returns the order a previous poll already produced.
func (s *Service) finalizeFromSession(ctx context.Context, st *SessionStatus) (*order.Order, error) {
	if existing, err := s.orders.BySessionID(ctx, st.ID); err != nil {
		return nil, errors.Wrap(err, "lookup session order")
	} else if existing != nil {
		return existing, nil
	}

	a, err := s.accounts.GetByID(ctx, st.AccountID)
	if err != nil {
		return nil, errors.Wrap(err, "load account")
	}
	if a.Cart.IsEmpty() {
		// Cleared by an earlier poll that won the race; nothing to create.
		return nil, nil
	}

	shipping := st.ShippingAddress
	if shipping == "" {
		shipping = fallbackShipping
	}
	total := decimal.New(st.AmountTotal, -2)

	o := s.snapshot(a, shipping, processorPaymentMethod, total, st.ID)
	created, err := s.finalizer.FinalizeOrder(ctx, o)
	if err != nil {
		return nil, errors.Wrap(err, "finalize order")
	}
	if !created {
		// Lost the race to a concurrent poll; return its order.
		return s.orders.BySessionID(ctx, st.ID)
	}

	s.notify(ctx, st.CustomerEmail, o)
	return o, nil
}

// snapshot builds an immutable order from the account's current cart.
func (s *Service) snapshot(a *account.Account, shipping, method string, total decimal.Decimal, sessionID string) *order.Order {
	items := make([]account.CartItem, len(a.Cart.Items))
	copy(items, a.Cart.Items)

	return &order.Order{
		ID:              uuid.New().String(),
		AccountID:       a.ID,
		Items:           items,
		ShippingAddress: shipping,
		PaymentMethod:   method,
		TotalPrice:      total.Round(2),
		IsPaid:          true,
		PaidAt:          s.now(),
		SessionID:       sessionID,
	}
}

// notify fires the confirmation message best-effort. A notification
// failure must never fail the order.
func (s *Service) notify(ctx context.Context, email string, o *order.Order) {
	if s.notifier == nil || email == "" {
		return
	}
	if err := s.notifier.SendOrderConfirmation(ctx, email, o); err != nil {
		zctx.From(ctx).Warn("send order confirmation",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
}

// minorUnits converts a decimal price to rounded minor currency units.
func minorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
