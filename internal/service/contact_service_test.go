package service

import (
	"context"
	"errors"
	"testing"

	"aroma-tales/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestContactService_SubmitNormalizes(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewContactService(notifier, zap.NewNop())

	err := svc.Submit(context.Background(), domain.ContactMessage{
		Name:    "  Bilal ",
		Email:   " Bilal@Example.COM",
		Message: "Do you ship to Karachi?",
	})
	require.NoError(t, err)

	require.Len(t, notifier.contacts, 1)
	got := notifier.contacts[0]
	assert.Equal(t, "Bilal", got.Name)
	assert.Equal(t, "bilal@example.com", got.Email)
	assert.Equal(t, domain.DefaultContactSubject, got.Subject)
}

func TestContactService_SubmitRejectsInvalid(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := NewContactService(notifier, zap.NewNop())

	err := svc.Submit(context.Background(), domain.ContactMessage{Email: "nope", Message: "   "})
	require.ErrorIs(t, err, ErrInvalidContact)

	var fields validator.ValidationErrors
	require.True(t, errors.As(err, &fields))
	assert.Len(t, fields, 3)
	assert.Empty(t, notifier.contacts)
}

func TestContactService_SubmitReportsDeliveryFailure(t *testing.T) {
	svc := NewContactService(&recordingNotifier{err: errSMTPDown}, zap.NewNop())

	err := svc.Submit(context.Background(), domain.ContactMessage{
		Name:    "Bilal",
		Email:   "bilal@example.com",
		Message: "Hello",
	})
	assert.ErrorIs(t, err, errSMTPDown)
}
