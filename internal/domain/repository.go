package domain

import (
	"context"
	"time"
)

// ProductRepository defines the contract for the record store
type ProductRepository interface {
	// Create persists product and fills in ID and timestamps.
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	FindAll(ctx context.Context, filter ProductFilter) ([]*Product, error)
	Update(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id string) error
	// Sell decrements stock and increments sold in one conditional step.
	// It returns ErrOutOfStock without changing anything when stock is zero.
	Sell(ctx context.Context, id string) (SaleResult, error)
}

// UserRepository stores identity provider accounts
type UserRepository interface {
	// Create returns ErrEmailTaken when the email already exists.
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// SessionTokens issues and verifies session tokens
type SessionTokens interface {
	Issue(user *User) (*Session, error)
	Parse(token string) (*Session, error)
}

// RevocationStore remembers signed-out sessions until they would expire anyway
type RevocationStore interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}
