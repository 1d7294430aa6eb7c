package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tastycart/storefront/internal/domain/account"
	"github.com/tastycart/storefront/internal/domain/checkout"
	"github.com/tastycart/storefront/internal/domain/order"
)

var (
	_ account.Repository = (*AccountRepository)(nil)
	_ checkout.Finalizer = (*AccountRepository)(nil)
)

// AccountRepository implements account.Repository backed by PostgreSQL.
// The cart lives in a JSONB column on the account row; writes go through a
// compare-and-swap on the version column.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns an AccountRepository that uses the given pool.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account with an empty cart. A duplicate username or
// email surfaces as account.ErrConflict.
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	cartJSON, err := json.Marshal(a.Cart)
	if err != nil {
		return fmt.Errorf("marshaling cart: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, role, cart, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.Username, a.Email, a.PasswordHash, a.Role, cartJSON, a.Version, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return account.ErrConflict
		}
		return fmt.Errorf("creating account %q: %w", a.Username, err)
	}
	return nil
}

const accountColumns = `id, username, email, password_hash, role, cart, version, created_at`

// GetByID returns the account with the given identifier, or
// account.ErrNotFound.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByUsername returns the account with the given username, or
// account.ErrNotFound.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*account.Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	return scanAccount(row)
}

// UpdateCart writes the cart only when the stored version still equals
// expectedVersion, bumping the version on success. A lost race returns
// account.ErrVersionConflict.
func (r *AccountRepository) UpdateCart(ctx context.Context, id string, cart account.Cart, expectedVersion int64) error {
	cartJSON, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshaling cart: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts SET cart = $1, version = version + 1
		WHERE id = $2 AND version = $3
	`, cartJSON, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("updating cart for account %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return account.ErrVersionConflict
	}
	return nil
}

// FinalizeOrder appends the order and clears the owning account's cart in
// one transaction, so no observer ever sees both (or neither) reflecting
// the purchase. Orders that carry a session id are deduplicated on it: a
// repeat finalization for the same session inserts nothing, leaves the
// cart untouched, and reports created=false.
func (r *AccountRepository) FinalizeOrder(ctx context.Context, o *order.Order) (created bool, err error) {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return false, fmt.Errorf("marshaling order items: %w", err)
	}

	var sessionID *string
	if o.SessionID != "" {
		sessionID = &o.SessionID
	}
	var paidAt *time.Time
	if !o.PaidAt.IsZero() {
		paidAt = &o.PaidAt
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin finalize transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO orders (id, account_id, items, shipping_address, payment_method, total_price, is_paid, paid_at, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) WHERE session_id IS NOT NULL DO NOTHING
	`, o.ID, o.AccountID, itemsJSON, o.ShippingAddress, o.PaymentMethod, o.TotalPrice, o.IsPaid, paidAt, sessionID)
	if err != nil {
		return false, fmt.Errorf("inserting order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	emptyCart, err := json.Marshal(account.Cart{})
	if err != nil {
		return false, fmt.Errorf("marshaling empty cart: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE accounts SET cart = $1, version = version + 1 WHERE id = $2
	`, emptyCart, o.AccountID); err != nil {
		return false, fmt.Errorf("clearing cart for account %q: %w", o.AccountID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit finalize transaction: %w", err)
	}
	return true, nil
}

// scanAccount maps an account row, decoding the embedded cart document.
func scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		a        account.Account
		cartJSON []byte
	)
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.Role, &cartJSON, &a.Version, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	if len(cartJSON) > 0 {
		if err := json.Unmarshal(cartJSON, &a.Cart); err != nil {
			return nil, fmt.Errorf("unmarshaling cart: %w", err)
		}
	}
	return &a, nil
}
