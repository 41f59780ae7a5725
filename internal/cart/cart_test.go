package cart_test

import (
	"testing"

	"github.com/SergeyBogomolovv/storefront-orders/internal/cart"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestCart_AddItemMergesByName(t *testing.T) {
	for _, n := range []int{1, 2, 5, 17} {
		c := cart.New()
		for range n {
			c.AddItem("Margherita", price(250))
		}

		lines := c.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, n, lines[0].Quantity)
		assert.True(t, c.Total().Equal(price(250*int64(n))))
	}
}

func TestCart_Scenario(t *testing.T) {
	c := cart.New()
	c.AddItem("Margherita", price(250))
	c.AddItem("Margherita", price(250))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Margherita", lines[0].Name)
	assert.True(t, lines[0].UnitPrice.Equal(price(250)))
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "500", c.Total().String())
}

func TestCart_Quantities(t *testing.T) {
	testCases := []struct {
		name      string
		actions   func(c *cart.Cart)
		wantLines map[string]int
		wantTotal decimal.Decimal
	}{
		{
			name: "set absolute quantity",
			actions: func(c *cart.Cart) {
				c.SetQuantity("Farmhouse", 4)
			},
			wantLines: map[string]int{"Margherita": 1, "Farmhouse": 4},
			wantTotal: price(250 + 4*399),
		},
		{
			name: "set zero removes line",
			actions: func(c *cart.Cart) {
				c.SetQuantity("Farmhouse", 0)
			},
			wantLines: map[string]int{"Margherita": 1},
			wantTotal: price(250),
		},
		{
			name: "set negative removes line and repeating is a no-op",
			actions: func(c *cart.Cart) {
				c.SetQuantity("Farmhouse", -3)
				c.SetQuantity("Farmhouse", -3)
			},
			wantLines: map[string]int{"Margherita": 1},
			wantTotal: price(250),
		},
		{
			name: "adjust down to zero removes line",
			actions: func(c *cart.Cart) {
				c.AdjustQuantity("Margherita", -1)
			},
			wantLines: map[string]int{"Farmhouse": 1},
			wantTotal: price(399),
		},
		{
			name: "adjust up",
			actions: func(c *cart.Cart) {
				c.AdjustQuantity("Margherita", 2)
			},
			wantLines: map[string]int{"Margherita": 3, "Farmhouse": 1},
			wantTotal: price(3*250 + 399),
		},
		{
			name: "unknown names are ignored",
			actions: func(c *cart.Cart) {
				c.SetQuantity("Hawaiian", 3)
				c.AdjustQuantity("Hawaiian", 1)
				c.RemoveItem("Hawaiian")
			},
			wantLines: map[string]int{"Margherita": 1, "Farmhouse": 1},
			wantTotal: price(250 + 399),
		},
		{
			name: "remove line",
			actions: func(c *cart.Cart) {
				c.RemoveItem("Margherita")
			},
			wantLines: map[string]int{"Farmhouse": 1},
			wantTotal: price(399),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := cart.New()
			c.AddItem("Margherita", price(250))
			c.AddItem("Farmhouse", price(399))

			tc.actions(c)

			got := make(map[string]int)
			for _, l := range c.Lines() {
				assert.Positive(t, l.Quantity)
				got[l.Name] = l.Quantity
			}
			assert.Equal(t, tc.wantLines, got)
			assert.True(t, tc.wantTotal.Equal(c.Total()), "total %s, want %s", c.Total(), tc.wantTotal)
		})
	}
}

func TestCart_Clear(t *testing.T) {
	c := cart.New()
	assert.ErrorIs(t, c.Clear(), cart.ErrAlreadyEmpty)

	c.AddItem("Veggie", price(199))
	require.NoError(t, c.Clear())
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total().IsZero())
	assert.ErrorIs(t, c.Clear(), cart.ErrAlreadyEmpty)
}

func TestCart_LinesReturnsCopy(t *testing.T) {
	c := cart.New()
	c.AddItem("Veggie", price(199))

	lines := c.Lines()
	lines[0].Quantity = 100

	assert.Equal(t, 1, c.Quantity("Veggie"))
}

func TestNew_NormalizesSnapshot(t *testing.T) {
	c := cart.New(
		cart.Line{Name: "A", UnitPrice: price(10), Quantity: 1},
		cart.Line{Name: "B", UnitPrice: price(20), Quantity: 0},
		cart.Line{Name: "A", UnitPrice: price(10), Quantity: 2},
		cart.Line{Name: "C", UnitPrice: price(5), Quantity: -1},
	)

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 3, c.Quantity("A"))
	assert.Equal(t, 0, c.Quantity("B"))
	assert.True(t, c.Total().Equal(price(30)))
}

func TestCart_FractionalPrices(t *testing.T) {
	c := cart.New()
	for range 3 {
		c.AddItem("Garlic bread", decimal.RequireFromString("0.10"))
	}
	assert.True(t, c.Total().Equal(decimal.RequireFromString("0.3")))
}
