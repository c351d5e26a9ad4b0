package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// MaxSessionIDLength matches the width of carts.session_id
	MaxSessionIDLength = 128
	// MaxLineQuantity caps a single cart line, merged adds included
	MaxLineQuantity = 999
)

// CartLine is a (product, quantity) pairing inside a session's cart.
// Quantity is always > 0; a line that would drop to zero is deleted instead.
type CartLine struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
	Product   *Product  `json:"product,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
}

// Cart is the mutable line collection owned by one session
type Cart struct {
	SessionID string     `json:"sessionId"`
	Lines     []CartLine `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Line returns the line with the given id
func (c *Cart) Line(id uuid.UUID) (*CartLine, bool) {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			return &c.Lines[i], true
		}
	}
	return nil, false
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// ItemCount is the total number of units across all lines
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Subtotal prices the cart at the current catalog prices of its resolved lines.
// Lines without product data contribute nothing.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		if l.Product == nil {
			continue
		}
		total = total.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
