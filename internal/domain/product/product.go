package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Catalog defaults applied when a product is created without the field.
const (
	DefaultDescription = "A delicious treat!"
	DefaultCategory    = "cookie"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrNameRequired is returned when a product is created without a name.
	ErrNameRequired = errors.New("product name is required")
	// ErrNegativePrice is returned when a price below zero is supplied.
	ErrNegativePrice = errors.New("product price must not be negative")
)

// Product represents a catalog item available for purchase. Cart line items
// copy these fields by value, so editing or deleting a product never
// touches existing carts or orders.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Description string
	Quantity    int
	Category    string
	Image       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Patch holds a partial product update. Nil fields are left unchanged,
// matching the admin edit form which submits only touched fields.
type Patch struct {
	Name        *string
	Price       *decimal.Decimal
	Description *string
	Quantity    *int
	Category    *string
	Image       *string
}

// Apply overlays the patch onto p, returning the first validation error.
func (patch Patch) Apply(p *Product) error {
	if patch.Name != nil {
		if *patch.Name == "" {
			return ErrNameRequired
		}
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return ErrNegativePrice
		}
		p.Price = *patch.Price
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	return nil
}

// Validate checks the required-field and range rules and fills defaults.
func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrNameRequired
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	if p.Description == "" {
		p.Description = DefaultDescription
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	return nil
}

// Repository defines persistence operations for the product catalog.
// Reads are public; writes are reached only through admin routes.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
