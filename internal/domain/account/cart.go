package account

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Cart mutation errors.
var (
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// CartItem is a denormalized copy of a product at the moment it was added
// to the cart. Copying (rather than referencing) means later catalog price
// changes never affect items already carted.
type CartItem struct {
	ID          string          `json:"id"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category,omitempty"`
	Image       string          `json:"image,omitempty"`
}

// Subtotal returns price x quantity for this line item.
func (it CartItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Cart holds an ordered sequence of line items and a running total. The
// zero value is a valid empty cart, so carts materialize lazily on first
// mutation without any explicit initialization step.
//
// Invariant: PriceTotal equals the sum of Subtotal over all items and is
// never negative. The total is maintained incrementally on every mutation
// rather than recomputed on read.
type Cart struct {
	PriceTotal decimal.Decimal `json:"priceTotal"`
	Items      []CartItem      `json:"items"`
}

// IsEmpty reports whether the cart holds no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Add appends a line item and bumps the running total by its subtotal.
// Quantities below 1 default to 1, keeping the total invariant intact.
func (c *Cart) Add(item CartItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	c.Items = append(c.Items, item)
	c.PriceTotal = c.PriceTotal.Add(item.Subtotal())
	c.clamp()
}

// UpdateQuantity sets the quantity of the identified line item, adjusting
// the total by price x (new - old).
func (c *Cart) UpdateQuantity(itemID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ID != itemID {
			continue
		}
		delta := decimal.NewFromInt(int64(quantity - c.Items[i].Quantity))
		c.PriceTotal = c.PriceTotal.Add(c.Items[i].Price.Mul(delta))
		c.Items[i].Quantity = quantity
		c.clamp()
		return nil
	}
	return ErrItemNotFound
}

// Remove deletes the identified line item and subtracts its subtotal from
// the total.
func (c *Cart) Remove(itemID string) error {
	for i := range c.Items {
		if c.Items[i].ID != itemID {
			continue
		}
		c.PriceTotal = c.PriceTotal.Sub(c.Items[i].Subtotal())
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
		c.clamp()
		return nil
	}
	return ErrItemNotFound
}

// Clear empties the cart and resets the total to zero.
func (c *Cart) Clear() {
	c.Items = nil
	c.PriceTotal = zero
}

// Recompute returns the sum of subtotals over all items. It exists to
// cross-check the incrementally maintained total.
func (c *Cart) Recompute() decimal.Decimal {
	sum := zero
	for _, it := range c.Items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

// clamp floors the running total at zero.
func (c *Cart) clamp() {
	if c.PriceTotal.IsNegative() {
		c.PriceTotal = zero
	}
}
