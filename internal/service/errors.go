package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCartChanged        = errors.New("cart kept changing during checkout")
	ErrInvalidCustomer    = errors.New("invalid customer details")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrInvalidQuantity    = errors.New("quantity must be between 1 and 999")
	ErrInvalidSession     = errors.New("session id must be 1 to 128 characters")
	ErrInvalidPayment     = errors.New("invalid payment method")
	ErrInvalidContact     = errors.New("invalid contact message")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// FieldErrors carries validator failures alongside a sentinel.
// errors.Is matches the sentinel; errors.As exposes the validator.ValidationErrors.
type FieldErrors struct {
	kind   error
	fields validator.ValidationErrors
}

func (e *FieldErrors) Error() string {
	names := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		names = append(names, f.Field())
	}
	return e.kind.Error() + ": " + strings.Join(names, ", ")
}

func (e *FieldErrors) Unwrap() []error {
	return []error{e.kind, e.fields}
}

// newFieldErrors wraps a validator error; anything else (e.g. InvalidValidationError) is returned as is
func newFieldErrors(kind error, err error) error {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		return &FieldErrors{kind: kind, fields: fields}
	}
	return err
}
