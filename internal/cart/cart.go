// Package cart holds the client-side cart: the line aggregator and the stores
// that keep a session's cart between user actions.
package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrAlreadyEmpty = errors.New("cart is already empty")

type Line struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart keeps at most one line per name and never a line with quantity below 1.
// It is owned by a single session and is not safe for concurrent use.
type Cart struct {
	lines []Line
}

// New rebuilds a cart from a snapshot. Lines sharing a name are merged and
// lines with a non-positive quantity are dropped.
func New(lines ...Line) *Cart {
	c := &Cart{}
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i := c.index(l.Name); i >= 0 {
			c.lines[i].Quantity += l.Quantity
			continue
		}
		c.lines = append(c.lines, l)
	}
	return c
}

func (c *Cart) AddItem(name string, unitPrice decimal.Decimal) {
	if i := c.index(name); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, Line{Name: name, UnitPrice: unitPrice, Quantity: 1})
}

// SetQuantity overwrites the quantity of an existing line. A quantity of zero
// or less removes the line. Unknown names are ignored.
func (c *Cart) SetQuantity(name string, quantity int) {
	i := c.index(name)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.removeAt(i)
		return
	}
	c.lines[i].Quantity = quantity
}

func (c *Cart) AdjustQuantity(name string, delta int) {
	i := c.index(name)
	if i < 0 {
		return
	}
	c.SetQuantity(name, c.lines[i].Quantity+delta)
}

func (c *Cart) RemoveItem(name string) {
	if i := c.index(name); i >= 0 {
		c.removeAt(i)
	}
}

// Clear empties the cart. Clearing an empty cart returns ErrAlreadyEmpty, which
// callers may surface as a notice; the cart is left unchanged either way.
func (c *Cart) Clear() error {
	if len(c.lines) == 0 {
		return ErrAlreadyEmpty
	}
	c.lines = nil
	return nil
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Quantity(name string) int {
	if i := c.index(name); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) index(name string) int {
	for i, l := range c.lines {
		if l.Name == name {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}
