package service

import (
	"errors"

	"storefront/internal/store"
)

// Business-level sentinels. Store-level not-found and duplicate errors
// are wrapped where they cross into user-visible outcomes.
var (
	// ErrUnauthorized means no authenticated user, or a credential
	// check failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmptyCart rejects checkout when the user has no cart or the
	// cart has no lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrOutOfStock rejects an add-to-cart for a product with zero
	// inventory; there is nothing to clamp to.
	ErrOutOfStock = errors.New("out of stock")

	// ErrDuplicateEmail rejects registration with an email already in
	// use.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidTransition rejects a backward or unknown order status
	// change.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// IsNotFound reports whether err is a store-level not-found
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// IsDuplicate reports whether err is a store-level unique violation
func IsDuplicate(err error) bool {
	return errors.Is(err, store.ErrDuplicate)
}

// ValidationError carries per-field messages for form input that failed
// structural validation.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// NewValidationError builds a ValidationError from field/message pairs
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add appends a message for a field and returns the error for chaining
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// Empty reports whether no field has errors
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}
