package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationKind identifies which message a notification renders
type NotificationKind string

const (
	NotificationAdminOrderNotice     NotificationKind = "admin_order_notice"
	NotificationCustomerConfirmation NotificationKind = "customer_confirmation"
	NotificationContactMessage       NotificationKind = "contact_message"
)

// NotificationStatus tracks delivery of an outbox row
type NotificationStatus string

const (
	NotificationPending    NotificationStatus = "pending"
	NotificationInProgress NotificationStatus = "in_progress"
	NotificationSent       NotificationStatus = "sent"
	NotificationFailed     NotificationStatus = "failed"
)

// Notification is an outbound message queued for best-effort delivery
type Notification struct {
	ID         uuid.UUID          `json:"id"`
	OrderID    *uuid.UUID         `json:"orderId,omitempty"`
	Kind       NotificationKind   `json:"kind"`
	Recipient  string             `json:"recipient"`
	Payload    json.RawMessage    `json:"payload"`
	Status     NotificationStatus `json:"status"`
	Attempts   int                `json:"attempts"`
	LastError  *string            `json:"lastError,omitempty"`
	LeaseUntil *time.Time         `json:"leaseUntil,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// DefaultContactSubject is used when the visitor leaves the subject blank
const DefaultContactSubject = "Contact Form Inquiry"

// ContactMessage is a storefront contact form submission
type ContactMessage struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message" validate:"required"`
}

// Normalize trims every field, lowercases the email and applies the default subject
func (m ContactMessage) Normalize() ContactMessage {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	m.Phone = strings.TrimSpace(m.Phone)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Message = strings.TrimSpace(m.Message)
	if m.Subject == "" {
		m.Subject = DefaultContactSubject
	}
	return m
}
