package notification

import (
	"context"
	"fmt"

	"aroma-tales/internal/config"
	"aroma-tales/internal/domain"
	"aroma-tales/internal/repository"

	"go.uber.org/zap"
)

// Notifier hands order and contact messages to the delivery pipeline
type Notifier interface {
	NotifyAdmin(ctx context.Context, order *domain.Order) error
	NotifyCustomer(ctx context.Context, order *domain.Order) error
	NotifyContact(ctx context.Context, msg *domain.ContactMessage) error
}

// NewNotifier returns the notifier for the configured delivery mode
func NewNotifier(cfg config.Config, repo repository.NotificationRepository, sender Sender, logger *zap.Logger) Notifier {
	if cfg.Notification.Mode == config.NotifyModeDirect {
		return NewDirectNotifier(sender, cfg.Mail.From, cfg.Mail.AdminInbox, logger)
	}
	return NewOutboxNotifier(repo, cfg.Mail.AdminInbox)
}

// OutboxNotifier persists notifications for the Relay to deliver
type OutboxNotifier struct {
	repo       repository.NotificationRepository
	adminInbox string
}

// NewOutboxNotifier creates an OutboxNotifier
func NewOutboxNotifier(repo repository.NotificationRepository, adminInbox string) *OutboxNotifier {
	return &OutboxNotifier{repo: repo, adminInbox: adminInbox}
}

func (n *OutboxNotifier) NotifyAdmin(ctx context.Context, order *domain.Order) error {
	notif, err := newOrderNotification(domain.NotificationAdminOrderNotice, n.adminInbox, order)
	if err != nil {
		return err
	}
	return n.repo.Enqueue(ctx, notif)
}

func (n *OutboxNotifier) NotifyCustomer(ctx context.Context, order *domain.Order) error {
	notif, err := newOrderNotification(domain.NotificationCustomerConfirmation, order.Customer.Email, order)
	if err != nil {
		return err
	}
	return n.repo.Enqueue(ctx, notif)
}

func (n *OutboxNotifier) NotifyContact(ctx context.Context, msg *domain.ContactMessage) error {
	notif, err := newContactNotification(n.adminInbox, msg)
	if err != nil {
		return err
	}
	return n.repo.Enqueue(ctx, notif)
}

// DirectNotifier renders and sends immediately, without persistence or retry beyond the mailer's own
type DirectNotifier struct {
	sender     Sender
	from       string
	adminInbox string
	logger     *zap.Logger
}

// NewDirectNotifier creates a DirectNotifier
func NewDirectNotifier(sender Sender, from, adminInbox string, logger *zap.Logger) *DirectNotifier {
	return &DirectNotifier{sender: sender, from: from, adminInbox: adminInbox, logger: logger}
}

func (n *DirectNotifier) NotifyAdmin(ctx context.Context, order *domain.Order) error {
	notif, err := newOrderNotification(domain.NotificationAdminOrderNotice, n.adminInbox, order)
	if err != nil {
		return err
	}
	return n.deliver(ctx, notif)
}

func (n *DirectNotifier) NotifyCustomer(ctx context.Context, order *domain.Order) error {
	notif, err := newOrderNotification(domain.NotificationCustomerConfirmation, order.Customer.Email, order)
	if err != nil {
		return err
	}
	return n.deliver(ctx, notif)
}

func (n *DirectNotifier) NotifyContact(ctx context.Context, msg *domain.ContactMessage) error {
	notif, err := newContactNotification(n.adminInbox, msg)
	if err != nil {
		return err
	}
	return n.deliver(ctx, notif)
}

func (n *DirectNotifier) deliver(ctx context.Context, notif *domain.Notification) error {
	msg, err := Render(notif, n.from)
	if err != nil {
		return err
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", notif.Kind, err)
	}

	n.logger.Info("Notification sent",
		zap.String("kind", string(notif.Kind)),
		zap.String("to", msg.To),
	)
	return nil
}
