package account

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// maxCartRetries bounds how many times a cart mutation is re-applied after
// losing the version compare-and-swap to a concurrent writer.
const maxCartRetries = 3

// Service is the cart manager: it owns all mutations of the per-account
// cart subdocument, maintaining the running total incrementally and
// persisting through the repository's optimistic-concurrency write.
type Service struct {
	accounts Repository
}

// NewService creates a cart Service backed by the given account repository.
func NewService(accounts Repository) *Service {
	return &Service{accounts: accounts}
}

// AddItem copies the given line item into the account's cart under a fresh
// identifier and returns the updated cart.
func (s *Service) AddItem(ctx context.Context, accountID string, item CartItem) (*Cart, error) {
	return s.mutate(ctx, accountID, func(c *Cart) error {
		item.ID = uuid.New().String()
		c.Add(item)
		return nil
	})
}

// GetCart returns the account's cart. An account that never touched its
// cart gets the empty shape, not an error.
func (s *Service) GetCart(ctx context.Context, accountID string) (*Cart, error) {
	a, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &a.Cart, nil
}

// UpdateItemQuantity changes the quantity of a line item and returns the
// updated cart.
func (s *Service) UpdateItemQuantity(ctx context.Context, accountID, itemID string, quantity int) (*Cart, error) {
	return s.mutate(ctx, accountID, func(c *Cart) error {
		return c.UpdateQuantity(itemID, quantity)
	})
}

// RemoveItem deletes a line item and returns the updated cart.
func (s *Service) RemoveItem(ctx context.Context, accountID, itemID string) (*Cart, error) {
	return s.mutate(ctx, accountID, func(c *Cart) error {
		return c.Remove(itemID)
	})
}

// mutate loads the account, applies fn to its cart, and persists the result
// with a version check. On a lost race the whole sequence is retried
// against fresh state, so concurrent mutations are serialized per account
// instead of silently overwriting each other.
func (s *Service) mutate(ctx context.Context, accountID string, fn func(*Cart) error) (*Cart, error) {
	var lastErr error
	for range maxCartRetries {
		a, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			return nil, err
		}

		if err := fn(&a.Cart); err != nil {
			return nil, err
		}

		err = s.accounts.UpdateCart(ctx, a.ID, a.Cart, a.Version)
		if err == nil {
			return &a.Cart, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, errors.Wrap(err, "persist cart")
		}
		lastErr = err
	}
	return nil, lastErr
}
