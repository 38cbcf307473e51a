package store

import (
	"sync"

	"github.com/shopspring/decimal"

	"monocart/internal/domain"
	"monocart/internal/validate"
)

var (
	shippingFee = decimal.RequireFromString("5.99")
	taxRate     = decimal.RequireFromString("0.05")
)

// Totals is the priced summary of the cart, rounded to cents
type Totals struct {
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// Cart is the client-owned shopping cart. Lines are keyed by product, size and color.
type Cart struct {
	mu    sync.RWMutex
	order []string
	lines map[string]domain.CartItem
}

type cartAddition struct {
	ProductID string  `json:"productId" validate:"required"`
	Quantity  int     `json:"quantity" validate:"gte=0"`
	Price     float64 `json:"price" validate:"gte=0"`
}

// NewCart creates an empty cart
func NewCart() *Cart {
	return &Cart{lines: make(map[string]domain.CartItem)}
}

// Add puts item into the cart, merging quantities with an existing line for
// the same product, size and color. A zero quantity adds one unit.
func (c *Cart) Add(item domain.CartItem) error {
	if err := validate.Struct(cartAddition{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}); err != nil {
		return err
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := item.Key()
	if existing, ok := c.lines[key]; ok {
		existing.Quantity += item.Quantity
		c.lines[key] = existing
		return nil
	}

	c.order = append(c.order, key)
	c.lines[key] = item
	return nil
}

// UpdateQuantity sets the quantity of a line; zero or less removes it
func (c *Cart) UpdateQuantity(key string, quantity int) bool {
	if quantity <= 0 {
		return c.Remove(key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.lines[key]
	if !ok {
		return false
	}
	line.Quantity = quantity
	c.lines[key] = line
	return true
}

// Remove deletes a line and reports whether it existed
func (c *Cart) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lines[key]; !ok {
		return false
	}
	delete(c.lines, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.lines = make(map[string]domain.CartItem)
}

// Items returns the cart lines in insertion order
func (c *Cart) Items() []domain.CartItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.CartItem, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.lines[key])
	}
	return out
}

// Totals prices the cart: subtotal, flat shipping when non-empty, 5% tax on the subtotal
func (c *Cart) Totals() Totals {
	items := c.Items()

	t := Totals{
		Subtotal: decimal.Zero,
		Shipping: decimal.Zero,
		Tax:      decimal.Zero,
		Total:    decimal.Zero,
	}
	if len(items) == 0 {
		return t
	}

	for _, item := range items {
		t.ItemCount += item.Quantity
		t.Subtotal = t.Subtotal.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	t.Subtotal = t.Subtotal.Round(2)
	t.Shipping = shippingFee
	t.Tax = t.Subtotal.Mul(taxRate).Round(2)
	t.Total = t.Subtotal.Add(t.Shipping).Add(t.Tax)
	return t
}
