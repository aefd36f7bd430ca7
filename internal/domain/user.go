package domain

import (
	"errors"
	"time"
)

// ErrUserNotFound is returned by user repositories when no user matches.
var ErrUserNotFound = errors.New("user not found")

// User is an account allowed to use the inventory pages
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is an issued sign-in. ID doubles as the token's jti claim.
type Session struct {
	ID        string
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}
