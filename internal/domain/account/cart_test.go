package account

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(id, name string, price string, qty int) CartItem {
	return CartItem{
		ID:          id,
		ProductName: name,
		Price:       decimal.RequireFromString(price),
		Quantity:    qty,
		Category:    "cookie",
	}
}

func TestCart_ZeroValueIsEmpty(t *testing.T) {
	var c Cart

	assert.True(t, c.IsEmpty())
	assert.True(t, c.PriceTotal.IsZero())
}

func TestCart_AddMaintainsTotal(t *testing.T) {
	var c Cart

	c.Add(newTestItem("i1", "Choc Chip", "10.00", 1))
	c.Add(newTestItem("i2", "Oatmeal", "5.00", 2))

	require.Len(t, c.Items, 2)
	assert.True(t, decimal.RequireFromString("20.00").Equal(c.PriceTotal))
	assert.True(t, c.Recompute().Equal(c.PriceTotal))
}

func TestCart_AddDefaultsQuantityToOne(t *testing.T) {
	var c Cart

	c.Add(newTestItem("i1", "Choc Chip", "3.50", 0))
	c.Add(newTestItem("i2", "Oatmeal", "2.00", -4))

	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, 1, c.Items[1].Quantity)
	assert.True(t, decimal.RequireFromString("5.50").Equal(c.PriceTotal))
}

func TestCart_UpdateQuantityAdjustsTotal(t *testing.T) {
	var c Cart
	c.Add(newTestItem("i1", "Choc Chip", "10.00", 1))
	c.Add(newTestItem("i2", "Oatmeal", "5.00", 2))

	// 20.00 total; dropping the second line to one unit shaves 5.00.
	require.NoError(t, c.UpdateQuantity("i2", 1))
	assert.True(t, decimal.RequireFromString("15.00").Equal(c.PriceTotal))

	// Raising the first line to three units adds 20.00 back.
	require.NoError(t, c.UpdateQuantity("i1", 3))
	assert.True(t, decimal.RequireFromString("35.00").Equal(c.PriceTotal))
	assert.True(t, c.Recompute().Equal(c.PriceTotal))
}

func TestCart_UpdateQuantityValidation(t *testing.T) {
	var c Cart
	c.Add(newTestItem("i1", "Choc Chip", "10.00", 1))

	require.ErrorIs(t, c.UpdateQuantity("i1", 0), ErrInvalidQuantity)
	require.ErrorIs(t, c.UpdateQuantity("i1", -2), ErrInvalidQuantity)
	require.ErrorIs(t, c.UpdateQuantity("missing", 2), ErrItemNotFound)

	// Failed updates leave the cart untouched.
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.True(t, decimal.RequireFromString("10.00").Equal(c.PriceTotal))
}

func TestCart_RemoveSubtractsSubtotal(t *testing.T) {
	var c Cart
	c.Add(newTestItem("i1", "Choc Chip", "10.00", 1))
	c.Add(newTestItem("i2", "Oatmeal", "5.00", 2))

	require.NoError(t, c.Remove("i2"))
	require.Len(t, c.Items, 1)
	assert.True(t, decimal.RequireFromString("10.00").Equal(c.PriceTotal))

	require.ErrorIs(t, c.Remove("i2"), ErrItemNotFound)
}

func TestCart_ClearResetsTotal(t *testing.T) {
	var c Cart
	c.Add(newTestItem("i1", "Choc Chip", "10.00", 3))

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.True(t, c.PriceTotal.IsZero())
}

// TestCart_TotalInvariantUnderRandomOps cross-checks the incrementally
// maintained total against a full recompute after a long random sequence
// of adds, quantity updates, and removals.
func TestCart_TotalInvariantUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	var c Cart
	next := 0

	for range 1000 {
		switch op := rng.Intn(3); {
		case op == 0 || c.IsEmpty():
			next++
			price := decimal.NewFromInt(int64(rng.Intn(2000))).Div(decimal.NewFromInt(100))
			c.Add(CartItem{
				ID:       "i" + strconv.Itoa(next),
				Price:    price,
				Quantity: rng.Intn(5), // zero included, Add defaults it
			})
		case op == 1:
			it := c.Items[rng.Intn(len(c.Items))]
			require.NoError(t, c.UpdateQuantity(it.ID, 1+rng.Intn(9)))
		default:
			it := c.Items[rng.Intn(len(c.Items))]
			require.NoError(t, c.Remove(it.ID))
		}

		require.Truef(t, c.Recompute().Equal(c.PriceTotal),
			"total %s diverged from recomputed %s", c.PriceTotal, c.Recompute())
		require.False(t, c.PriceTotal.IsNegative())
	}
}
