package product

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_FillsDefaults(t *testing.T) {
	p := Product{Name: "Choc Chip", Price: decimal.RequireFromString("3.50")}

	require.NoError(t, p.Validate())
	assert.Equal(t, DefaultDescription, p.Description)
	assert.Equal(t, DefaultCategory, p.Category)
}

func TestValidate_KeepsExplicitFields(t *testing.T) {
	p := Product{
		Name:        "Brownie",
		Price:       decimal.RequireFromString("4.00"),
		Description: "Fudgy",
		Category:    "cake",
	}

	require.NoError(t, p.Validate())
	assert.Equal(t, "Fudgy", p.Description)
	assert.Equal(t, "cake", p.Category)
}

func TestValidate_Rules(t *testing.T) {
	p := Product{Price: decimal.RequireFromString("3.50")}
	require.ErrorIs(t, p.Validate(), ErrNameRequired)

	p = Product{Name: "Choc Chip", Price: decimal.RequireFromString("-1")}
	require.ErrorIs(t, p.Validate(), ErrNegativePrice)

	// Zero is an allowed price (free samples).
	p = Product{Name: "Sample", Price: decimal.Zero}
	require.NoError(t, p.Validate())
}

func TestPatch_PartialUpdate(t *testing.T) {
	p := Product{
		Name:        "Choc Chip",
		Price:       decimal.RequireFromString("3.50"),
		Description: "Classic",
		Category:    "cookie",
		Quantity:    10,
	}

	newPrice := decimal.RequireFromString("4.25")
	newQty := 5
	require.NoError(t, Patch{Price: &newPrice, Quantity: &newQty}.Apply(&p))

	assert.True(t, newPrice.Equal(p.Price))
	assert.Equal(t, 5, p.Quantity)
	// Untouched fields survive.
	assert.Equal(t, "Choc Chip", p.Name)
	assert.Equal(t, "Classic", p.Description)
}

func TestPatch_Validation(t *testing.T) {
	p := Product{Name: "Choc Chip", Price: decimal.RequireFromString("3.50")}

	empty := ""
	require.ErrorIs(t, Patch{Name: &empty}.Apply(&p), ErrNameRequired)

	negative := decimal.RequireFromString("-0.01")
	require.ErrorIs(t, Patch{Price: &negative}.Apply(&p), ErrNegativePrice)

	// Failed patches leave the product untouched.
	assert.Equal(t, "Choc Chip", p.Name)
	assert.True(t, decimal.RequireFromString("3.50").Equal(p.Price))
}
