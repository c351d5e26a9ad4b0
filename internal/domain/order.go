package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer settles the order
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "COD"
	PaymentOnline         PaymentMethod = "Online"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentOnline
}

// OrderStatus is the administrative state of an order.
// Any status may be overwritten by any other; no transition graph is enforced.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in display order
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// DefaultCountry is applied when the customer leaves the country blank
const DefaultCountry = "Pakistan"

// Address is the delivery address of a customer
type Address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
}

// Customer is the contact block captured at checkout
type Customer struct {
	Name    string  `json:"name" validate:"required"`
	Email   string  `json:"email" validate:"required,email"`
	Phone   string  `json:"phone" validate:"required"`
	Address Address `json:"address" validate:"required"`
}

// Normalize trims every field and applies the default country
func (c Customer) Normalize() Customer {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address.Street = strings.TrimSpace(c.Address.Street)
	c.Address.City = strings.TrimSpace(c.Address.City)
	c.Address.PostalCode = strings.TrimSpace(c.Address.PostalCode)
	c.Address.Country = strings.TrimSpace(c.Address.Country)
	if c.Address.Country == "" {
		c.Address.Country = DefaultCountry
	}
	return c
}

// OrderLine is an immutable, price-snapshotted copy of a cart line.
// UnitPrice is captured at order creation and never recomputed.
type OrderLine struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
	Product   *Product        `json:"product,omitempty"`
}

// LineTotal is UnitPrice * Quantity
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Order is a placed order
type Order struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	SessionID     string          `json:"sessionId"`
	Customer      Customer        `json:"customer"`
	Lines         []OrderLine     `json:"items"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Shipping      decimal.Decimal `json:"shipping"`
	Total         decimal.Decimal `json:"total"`
	Notes         string          `json:"notes,omitempty"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewOrder builds a pending order from snapshotted lines and computes its totals.
// Shipping is currently always free.
func NewOrder(sessionID string, customer Customer, lines []OrderLine, method PaymentMethod, notes string) *Order {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	shipping := decimal.Zero
	now := time.Now().UTC()

	return &Order{
		ID:            uuid.New(),
		OrderNumber:   NewOrderNumber(now),
		SessionID:     sessionID,
		Customer:      customer,
		Lines:         lines,
		PaymentMethod: method,
		Subtotal:      subtotal,
		Shipping:      shipping,
		Total:         subtotal.Add(shipping),
		Notes:         strings.TrimSpace(notes),
		Status:        OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewOrderNumber returns a human-referenceable order number such as AT-20250114-3F9A1C2B.
// Uniqueness is enforced by the orders table; callers regenerate on collision.
func NewOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("AT-%s-%s", at.UTC().Format("20060102"), suffix)
}
