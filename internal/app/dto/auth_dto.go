package dto

import (
	"time"

	"github.com/mrops-br/estoque-api/internal/domain"
)

// RegisterRequest is the sign-up body
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest is the password sign-in body
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type SessionResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LoginResponse is the data of a successful sign-in
type LoginResponse struct {
	User    UserResponse    `json:"user"`
	Session SessionResponse `json:"session"`
}

func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func ToLoginResponse(u *domain.User, s *domain.Session) *LoginResponse {
	return &LoginResponse{
		User: ToUserResponse(u),
		Session: SessionResponse{
			AccessToken: s.Token,
			TokenType:   "bearer",
			ExpiresAt:   s.ExpiresAt,
		},
	}
}
