package domain

import "errors"

var (
	// ErrInvalidInput marks a missing or malformed field the caller must correct.
	ErrInvalidInput = errors.New("invalid input")
	// ErrProductNotFound is returned when an id does not resolve to a product.
	ErrProductNotFound = errors.New("product not found")
	// ErrOutOfStock is returned when a sale is attempted with zero stock.
	ErrOutOfStock = errors.New("product out of stock")
	// ErrStoreUnavailable wraps failures of the record store.
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrUnauthenticated is returned when no valid session is present.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
)
