package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tastycart/storefront/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements the read side of the append-only order
// history. Appending happens only through AccountRepository.FinalizeOrder,
// which ties the insert to the cart clear.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, account_id, items, shipping_address, payment_method, total_price, is_paid, paid_at, session_id, created_at`

// ListByAccount returns the account's full order history in insertion
// order, or order.ErrNoOrders when there is none.
func (r *OrderRepository) ListByAccount(ctx context.Context, accountID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE account_id = $1 ORDER BY seq
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for account %q: %w", accountID, err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	if len(out) == 0 {
		return nil, order.ErrNoOrders
	}
	return out, nil
}

// MostRecent returns the latest order for the account, or nil when the
// history is empty.
func (r *OrderRepository) MostRecent(ctx context.Context, accountID string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE account_id = $1 ORDER BY seq DESC LIMIT 1
	`, accountID)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// BySessionID returns the order finalized from the given checkout session,
// or nil when none exists.
func (r *OrderRepository) BySessionID(ctx context.Context, sessionID string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE session_id = $1
	`, sessionID)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

// scanOrder maps an order row, decoding the JSONB item snapshot.
func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		paidAt    *time.Time
		sessionID *string
	)
	err := row.Scan(&o.ID, &o.AccountID, &itemsJSON, &o.ShippingAddress, &o.PaymentMethod,
		&o.TotalPrice, &o.IsPaid, &paidAt, &sessionID, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning order: %w", err)
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshaling order items: %w", err)
	}
	if paidAt != nil {
		o.PaidAt = *paidAt
	}
	if sessionID != nil {
		o.SessionID = *sessionID
	}
	return &o, nil
}
