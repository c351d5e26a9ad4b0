package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"aroma-tales/internal/domain"

	"github.com/shopspring/decimal"
)

// OrderPayload is the order snapshot stored with an outbox row.
// It is self-contained so a message renders the same however late it is delivered.
type OrderPayload struct {
	OrderNumber   string               `json:"orderNumber"`
	Customer      domain.Customer      `json:"customer"`
	Items         []OrderItemPayload   `json:"items"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Subtotal      decimal.Decimal      `json:"subtotal"`
	Shipping      decimal.Decimal      `json:"shipping"`
	Total         decimal.Decimal      `json:"total"`
	Notes         string               `json:"notes,omitempty"`
	PlacedAt      time.Time            `json:"placedAt"`
}

// OrderItemPayload is one rendered order line
type OrderItemPayload struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// NewOrderPayload captures what the order emails show
func NewOrderPayload(order *domain.Order) OrderPayload {
	items := make([]OrderItemPayload, 0, len(order.Lines))
	for _, line := range order.Lines {
		name := line.ProductID.String()
		if line.Product != nil {
			name = line.Product.Name
		}
		items = append(items, OrderItemPayload{
			Name:      name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal(),
		})
	}

	return OrderPayload{
		OrderNumber:   order.OrderNumber,
		Customer:      order.Customer,
		Items:         items,
		PaymentMethod: order.PaymentMethod,
		Subtotal:      order.Subtotal,
		Shipping:      order.Shipping,
		Total:         order.Total,
		Notes:         order.Notes,
		PlacedAt:      order.CreatedAt,
	}
}

func newOrderNotification(kind domain.NotificationKind, recipient string, order *domain.Order) (*domain.Notification, error) {
	payload, err := json.Marshal(NewOrderPayload(order))
	if err != nil {
		return nil, fmt.Errorf("failed to encode order payload: %w", err)
	}

	orderID := order.ID
	return &domain.Notification{
		OrderID:   &orderID,
		Kind:      kind,
		Recipient: recipient,
		Payload:   payload,
		Status:    domain.NotificationPending,
	}, nil
}

func newContactNotification(recipient string, msg *domain.ContactMessage) (*domain.Notification, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode contact payload: %w", err)
	}

	return &domain.Notification{
		Kind:      domain.NotificationContactMessage,
		Recipient: recipient,
		Payload:   payload,
		Status:    domain.NotificationPending,
	}, nil
}
