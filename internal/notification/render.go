package notification

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"aroma-tales/internal/domain"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("notification").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
	"paymentLabel": func(m domain.PaymentMethod) string {
		if m == domain.PaymentCashOnDelivery {
			return "Cash on Delivery"
		}
		return string(m)
	},
}).ParseFS(templateFS, "templates/*.html"))

// Render turns an outbox row into a ready-to-send Message
func Render(n *domain.Notification, from string) (*Message, error) {
	var (
		data    any
		subject string
		replyTo string
	)

	switch n.Kind {
	case domain.NotificationAdminOrderNotice, domain.NotificationCustomerConfirmation:
		var p OrderPayload
		if err := json.Unmarshal(n.Payload, &p); err != nil {
			return nil, fmt.Errorf("failed to decode order payload: %w", err)
		}
		data = p
		if n.Kind == domain.NotificationAdminOrderNotice {
			subject = "New Order: " + p.OrderNumber
			replyTo = p.Customer.Email
		} else {
			subject = "Order Confirmation - " + p.OrderNumber
		}
	case domain.NotificationContactMessage:
		var m domain.ContactMessage
		if err := json.Unmarshal(n.Payload, &m); err != nil {
			return nil, fmt.Errorf("failed to decode contact payload: %w", err)
		}
		data = m
		subject = "Contact Form: " + m.Subject
		replyTo = m.Email
	default:
		return nil, fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, string(n.Kind), data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", n.Kind, err)
	}

	return &Message{
		From:     from,
		To:       n.Recipient,
		ReplyTo:  replyTo,
		Subject:  subject,
		HTMLBody: body.String(),
	}, nil
}
