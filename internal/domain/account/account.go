package account

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Account roles. Every account is created as RoleUser unless registered
// through the admin path.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Sentinel errors shared by the account repository and the cart service.
var (
	ErrNotFound        = errors.New("account not found")
	ErrConflict        = errors.New("username or email already exists")
	ErrVersionConflict = errors.New("account was modified concurrently")
)

// Account is the root document of the storefront: credentials, role, the
// embedded cart, and an optimistic-concurrency version counter. Order
// history lives in its own append-only store keyed by the account ID.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Cart         Cart
	Version      int64
	CreatedAt    time.Time
}

// IsAdmin reports whether the account holds the administrator role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Public is the client-facing projection of an account. The password hash
// never appears in any API response.
type Public struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// PublicView returns the projection of the account that is safe to return
// to clients.
func (a *Account) PublicView() Public {
	return Public{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Role:     a.Role,
	}
}

// Repository defines persistence operations for accounts.
//
// UpdateCart performs a compare-and-swap on the account's version counter:
// the write succeeds only when the stored version still equals
// expectedVersion, and returns ErrVersionConflict otherwise. Callers retry
// by reloading the account and re-applying their mutation.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	UpdateCart(ctx context.Context, id string, cart Cart, expectedVersion int64) error
}

// zero is a shared zero decimal, used for clamping totals.
var zero = decimal.Zero

// Monetary amounts travel as JSON numbers, both in API responses and in
// the cart column.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}
