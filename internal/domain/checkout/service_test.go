package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tastycart/storefront/internal/domain/account"
	"github.com/tastycart/storefront/internal/domain/order"
)

// --- Mock implementations ---

type mockAccountRepo struct {
	account *account.Account
}

func (m *mockAccountRepo) Create(_ context.Context, a *account.Account) error {
	m.account = a
	return nil
}

func (m *mockAccountRepo) GetByID(_ context.Context, id string) (*account.Account, error) {
	if m.account == nil || m.account.ID != id {
		return nil, account.ErrNotFound
	}
	cp := *m.account
	cp.Cart.Items = append([]account.CartItem(nil), m.account.Cart.Items...)
	return &cp, nil
}

func (m *mockAccountRepo) GetByUsername(_ context.Context, username string) (*account.Account, error) {
	if m.account == nil || m.account.Username != username {
		return nil, account.ErrNotFound
	}
	return m.account, nil
}

func (m *mockAccountRepo) UpdateCart(_ context.Context, _ string, cart account.Cart, _ int64) error {
	m.account.Cart = cart
	return nil
}

// mockFinalizer records finalized orders and clears the mock account's
// cart, mirroring the transactional write of the real store.
type mockFinalizer struct {
	accounts  *mockAccountRepo
	finalized []*order.Order
	err       error
	duplicate bool
}

func (m *mockFinalizer) FinalizeOrder(_ context.Context, o *order.Order) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.duplicate {
		return false, nil
	}
	m.finalized = append(m.finalized, o)
	if m.accounts != nil && m.accounts.account != nil {
		m.accounts.account.Cart.Clear()
	}
	return true, nil
}

type mockOrderRepo struct {
	bySession map[string]*order.Order
	// lateWinner, when set, is returned from the second BySessionID call
	// onwards, simulating a concurrent poll landing its row between the
	// pre-check and the post-conflict refetch.
	lateWinner   *order.Order
	sessionPolls int
}

func (m *mockOrderRepo) ListByAccount(_ context.Context, _ string) ([]order.Order, error) {
	return nil, order.ErrNoOrders
}

func (m *mockOrderRepo) MostRecent(_ context.Context, _ string) (*order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) BySessionID(_ context.Context, sessionID string) (*order.Order, error) {
	m.sessionPolls++
	if m.lateWinner != nil && m.sessionPolls > 1 {
		return m.lateWinner, nil
	}
	return m.bySession[sessionID], nil
}

type mockPayments struct {
	session    *Session
	status     *SessionStatus
	createErr  error
	getErr     error
	lastCreate CreateSessionRequest
}

func (m *mockPayments) CreateSession(_ context.Context, req CreateSessionRequest) (*Session, error) {
	m.lastCreate = req
	return m.session, m.createErr
}

func (m *mockPayments) GetSession(_ context.Context, _ string) (*SessionStatus, error) {
	return m.status, m.getErr
}

type mockNotifier struct {
	sent []string
	err  error
}

func (m *mockNotifier) SendOrderConfirmation(_ context.Context, email string, _ *order.Order) error {
	m.sent = append(m.sent, email)
	return m.err
}

// --- Helpers ---

func newCartedAccount(items ...account.CartItem) *mockAccountRepo {
	a := &account.Account{ID: "acc1", Username: "alice", Email: "alice@example.com"}
	for _, it := range items {
		a.Cart.Add(it)
	}
	return &mockAccountRepo{account: a}
}

func testItem(id, name, price string, qty int) account.CartItem {
	return account.CartItem{
		ID:          id,
		ProductName: name,
		Price:       decimal.RequireFromString(price),
		Quantity:    qty,
	}
}

type deps struct {
	accounts  *mockAccountRepo
	orders    *mockOrderRepo
	finalizer *mockFinalizer
	payments  *mockPayments
	notifier  *mockNotifier
	svc       *Service
}

func newTestService(accounts *mockAccountRepo) *deps {
	d := &deps{
		accounts:  accounts,
		orders:    &mockOrderRepo{bySession: make(map[string]*order.Order)},
		finalizer: &mockFinalizer{accounts: accounts},
		payments:  &mockPayments{},
		notifier:  &mockNotifier{},
	}
	d.svc = NewService(accounts, d.orders, d.finalizer, d.payments, d.notifier)
	d.svc.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return d
}

// --- Direct flow ---

func TestCheckout_EmptyCart(t *testing.T) {
	d := newTestService(newCartedAccount())

	_, err := d.svc.Checkout(context.Background(), "acc1", "1 Main St", "card")
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckout_MissingPaymentInfo(t *testing.T) {
	d := newTestService(newCartedAccount(testItem("i1", "Choc Chip", "3.50", 2)))

	_, err := d.svc.Checkout(context.Background(), "acc1", "", "card")
	require.ErrorIs(t, err, ErrMissingPaymentInfo)

	_, err = d.svc.Checkout(context.Background(), "acc1", "1 Main St", "")
	require.ErrorIs(t, err, ErrMissingPaymentInfo)
}

func TestCheckout_SnapshotsCartAndClears(t *testing.T) {
	d := newTestService(newCartedAccount(
		testItem("i1", "Choc Chip", "10.00", 1),
		testItem("i2", "Oatmeal", "5.00", 2),
	))

	o, err := d.svc.Checkout(context.Background(), "acc1", "1 Main St", "card")
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "acc1", o.AccountID)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, "1 Main St", o.ShippingAddress)
	assert.Equal(t, "card", o.PaymentMethod)
	assert.True(t, decimal.RequireFromString("20.00").Equal(o.TotalPrice))
	assert.True(t, o.IsPaid)
	assert.Empty(t, o.SessionID)

	require.Len(t, d.finalizer.finalized, 1)
	assert.True(t, d.accounts.account.Cart.IsEmpty())
}

func TestCheckout_FinalizeError(t *testing.T) {
	d := newTestService(newCartedAccount(testItem("i1", "Choc Chip", "3.50", 1)))
	d.finalizer.err = errors.New("db down")

	_, err := d.svc.Checkout(context.Background(), "acc1", "1 Main St", "card")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "finalize order")
}

// --- Session creation ---

func TestCreateSession_BuildsPriceLines(t *testing.T) {
	d := newTestService(newCartedAccount(
		testItem("i1", "Choc Chip", "3.50", 2),
		testItem("i2", "Oatmeal", "2.25", 1),
	))
	d.payments.session = &Session{ID: "cs_1", ClientSecret: "cs_1_secret"}

	sess, err := d.svc.CreateSession(context.Background(), "acc1")
	require.NoError(t, err)
	assert.Equal(t, "cs_1_secret", sess.ClientSecret)

	req := d.payments.lastCreate
	assert.Equal(t, "acc1", req.AccountID)
	require.Len(t, req.Lines, 2)
	assert.Equal(t, SessionLine{Name: "Choc Chip", UnitAmount: 350, Quantity: 2}, req.Lines[0])
	assert.Equal(t, SessionLine{Name: "Oatmeal", UnitAmount: 225, Quantity: 1}, req.Lines[1])
}

func TestCreateSession_EmptyCart(t *testing.T) {
	d := newTestService(newCartedAccount())

	_, err := d.svc.CreateSession(context.Background(), "acc1")
	require.ErrorIs(t, err, ErrEmptyCart)
}

// --- Session resolution ---

func TestResolveSession_OpenSession(t *testing.T) {
	d := newTestService(newCartedAccount(testItem("i1", "Choc Chip", "3.50", 1)))
	d.payments.status = &SessionStatus{ID: "cs_1", Status: SessionOpen, AccountID: "acc1"}

	res, err := d.svc.ResolveSession(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, SessionOpen, res.Status)
	assert.Nil(t, res.Order)
	assert.Empty(t, d.finalizer.finalized)
}

func TestResolveSession_CompleteFinalizesOrder(t *testing.T) {
	d := newTestService(newCartedAccount(testItem("i1", "Choc Chip", "3.50", 2)))
	d.payments.status = &SessionStatus{
		ID:              "cs_1",
		Status:          SessionComplete,
		AccountID:       "acc1",
		CustomerEmail:   "alice@example.com",
		ShippingAddress: "1 Main St",
		AmountTotal:     4250,
	}

	res, err := d.svc.ResolveSession(context.Background(), "cs_1")
	require.NoError(t, err)

	assert.Equal(t, SessionComplete, res.Status)
	assert.Equal(t, "alice@example.com", res.CustomerEmail)
	require.NotNil(t, res.Order)
	assert.Equal(t, "cs_1", res.Order.SessionID)
	assert.Equal(t, "Stripe", res.Order.PaymentMethod)
	assert.Equal(t, "1 Main St", res.Order.ShippingAddress)
	assert.True(t, decimal.RequireFromString("42.50").Equal(res.Order.TotalPrice))
	assert.True(t, res.Order.IsPaid)

	assert.True(t, d.accounts.account.Cart.IsEmpty())
	assert.Equal(t, []string{"alice@example.com"}, d.notifier.sent)
}

func TestResolveSession_MissingShippingFallback(t *testing.T) {
	d := newTestService(newCartedAccount(testItem("i1", "Choc Chip", "3.50", 1)))
	d.payments.status = &SessionStatus{
		ID:          "cs_1",
		Status:      SessionComplete,
		AccountID:   "acc1",
		AmountTotal: 350,
	}

	res, err := d.svc.ResolveSession(context.Background(), "cs_1")
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.Equal(t, "Not provided", res.Order.ShippingAddress)
}

func TestResolveSession_IdempotentSecondPoll(t *testing.T) {
	d := newTestService(newCartedAccount(testItem("i1", "Choc Chip", "3.50", 1)))
	existing := &order.Order{ID: "ord1", SessionID: "cs_1"}
	d.orders.bySession["cs_1"] = existing
	d.payments.status = &SessionStatus{
		ID:          "cs_1",
		Status:      SessionComplete,
		AccountID:   "acc1",
		AmountTotal: 350,
	}

	res, err := d.svc.ResolveSession(context.Background(), "cs_1")
	require.NoError(t, err)

	assert.Same(t, existing, res.Order)
	assert.Empty(t, d.finalizer.finalized)
	assert.Empty(t, d.notifier.sent)
}

func TestResolveSession_LostRaceReturnsWinner(t *testing.T) {
	d := newTestService(newCartedAccount(testItem("i1", "Choc Chip", "3.50", 1)))
	winner := &order.Order{ID: "ord1", SessionID: "cs_1"}
	d.finalizer.duplicate = true
	d.payments.status = &SessionStatus{
		ID:          "cs_1",
		Status:      SessionComplete,
		AccountID:   "acc1",
		AmountTotal: 350,
	}

	// The winner's row appears between the pre-check and the refetch.
	d.orders.lateWinner = winner

	res, err := d.svc.ResolveSession(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Same(t, winner, res.Order)
	assert.Empty(t, d.notifier.sent)
}

func TestResolveSession_ProcessorError(t *testing.T) {
	d := newTestService(newCartedAccount(testItem("i1", "Choc Chip", "3.50", 1)))
	d.payments.getErr = errors.New("processor unavailable")

	_, err := d.svc.ResolveSession(context.Background(), "cs_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieve session")
}

func TestResolveSession_FinalizeErrorSwallowed(t *testing.T) {
	d := newTestService(newCartedAccount(testItem("i1", "Choc Chip", "3.50", 1)))
	d.finalizer.err = errors.New("db down")
	d.payments.status = &SessionStatus{
		ID:          "cs_1",
		Status:      SessionComplete,
		AccountID:   "acc1",
		AmountTotal: 350,
	}

	// Payment already happened; the status still reaches the client.
	res, err := d.svc.ResolveSession(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, SessionComplete, res.Status)
	assert.Nil(t, res.Order)
}

func TestResolveSession_NotifierFailureNonFatal(t *testing.T) {
	d := newTestService(newCartedAccount(testItem("i1", "Choc Chip", "3.50", 1)))
	d.notifier.err = errors.New("smtp down")
	d.payments.status = &SessionStatus{
		ID:            "cs_1",
		Status:        SessionComplete,
		AccountID:     "acc1",
		CustomerEmail: "alice@example.com",
		AmountTotal:   350,
	}

	res, err := d.svc.ResolveSession(context.Background(), "cs_1")
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.Equal(t, []string{"alice@example.com"}, d.notifier.sent)
}
