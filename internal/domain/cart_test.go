package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCart_SubtotalSkipsUnresolvedLines(t *testing.T) {
	cart := &Cart{
		SessionID: "sess",
		Lines: []CartLine{
			{ID: uuid.New(), Quantity: 2, Product: &Product{Price: decimal.RequireFromString("91.99")}},
			{ID: uuid.New(), Quantity: 5},
			{ID: uuid.New(), Quantity: 1, Product: &Product{Price: decimal.RequireFromString("0.02")}},
		},
	}

	assert.True(t, cart.Subtotal().Equal(decimal.RequireFromString("184.00")))
	assert.Equal(t, 8, cart.ItemCount())
	assert.False(t, cart.IsEmpty())
}

func TestCart_Line(t *testing.T) {
	id := uuid.New()
	cart := &Cart{Lines: []CartLine{{ID: uuid.New()}, {ID: id, Quantity: 3}}}

	line, ok := cart.Line(id)
	assert.True(t, ok)
	assert.Equal(t, 3, line.Quantity)

	_, ok = cart.Line(uuid.New())
	assert.False(t, ok)

	assert.True(t, (&Cart{}).IsEmpty())
}

func TestCategory_Valid(t *testing.T) {
	assert.True(t, CategoryMen.Valid())
	assert.True(t, CategoryWomen.Valid())
	assert.True(t, CategoryUnisex.Valid())
	assert.False(t, Category("Kids").Valid())
}
