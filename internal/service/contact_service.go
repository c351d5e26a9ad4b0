package service

import (
	"context"
	"fmt"

	"aroma-tales/internal/domain"
	"aroma-tales/internal/notification"

	"go.uber.org/zap"
)

// ContactService forwards storefront contact form submissions to the shop inbox
type ContactService interface {
	Submit(ctx context.Context, msg domain.ContactMessage) error
}

type contactService struct {
	notifier notification.Notifier
	logger   *zap.Logger
}

// NewContactService creates a new instance of ContactService
func NewContactService(notifier notification.Notifier, logger *zap.Logger) ContactService {
	return &contactService{notifier: notifier, logger: logger}
}

// Submit validates and hands the message to the notifier; unlike order notices a failure here is reported
func (s *contactService) Submit(ctx context.Context, msg domain.ContactMessage) error {
	msg = msg.Normalize()
	if err := validate.Struct(msg); err != nil {
		return newFieldErrors(ErrInvalidContact, err)
	}

	if err := s.notifier.NotifyContact(ctx, &msg); err != nil {
		return fmt.Errorf("failed to forward contact message: %w", err)
	}

	s.logger.Info("Contact message received", zap.String("subject", msg.Subject))
	return nil
}
