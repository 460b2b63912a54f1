package shop

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOutOfStock         = errors.New("out of stock")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrDuplicateReview    = errors.New("product already reviewed")
	ErrForbidden          = errors.New("forbidden")
	ErrNotOwner           = fmt.Errorf("%w: not the owner", ErrForbidden)
	ErrUnauthenticated    = errors.New("authentication required")
	ErrConflict           = errors.New("already exists")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// StockError names the product whose stock could not cover a request.
// Err is ErrOutOfStock for cart operations and ErrInsufficientStock for checkout.
type StockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
	Err         error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%v for %q: requested %d, available %d", e.Err, e.ProductName, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return e.Err }
