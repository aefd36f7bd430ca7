package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mrops-br/estoque-api/internal/app/dto"
	"github.com/mrops-br/estoque-api/internal/app/service"
	"github.com/mrops-br/estoque-api/internal/domain"
	"github.com/mrops-br/estoque-api/internal/infrastructure/config"
	"github.com/mrops-br/estoque-api/internal/infrastructure/http/middleware"
	"github.com/mrops-br/estoque-api/internal/infrastructure/http/response"
)

// AuthHandler exposes the identity provider
type AuthHandler struct {
	service *service.AuthService
	cookie  config.AuthConfig
	logger  *slog.Logger
}

func NewAuthHandler(service *service.AuthService, cfg config.AuthConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, cookie: cfg, logger: logger}
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusCreated, dto.MessageResponse{
		Message: "User registered",
		Data:    user,
	})
}

// Login handles POST /api/login and sets the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	login, err := h.service.Login(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(login.Session.AccessToken, login.Session.ExpiresAt))
	response.JSON(w, http.StatusOK, dto.MessageResponse{
		Message: "Signed in",
		Data:    login,
	})
}

// Auth handles GET /api/auth
func (h *AuthHandler) Auth(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Authenticate(r.Context(), middleware.SessionToken(r, h.cookie.CookieName))
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.MessageResponse{
		Message: "Authenticated",
		Data: map[string]any{
			"user_id":    sess.UserID,
			"email":      sess.Email,
			"expires_at": sess.ExpiresAt,
		},
	})
}

// Logout handles POST /api/logout. Without a live session it answers 400.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.service.Logout(r.Context(), middleware.SessionToken(r, h.cookie.CookieName))
	http.SetCookie(w, h.sessionCookie("", time.Unix(0, 0)))

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		response.Error(w, http.StatusBadRequest, err)
		return
	case err != nil:
		response.FromError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.MessageResponse{Message: "Signed out"})
}

func (h *AuthHandler) sessionCookie(token string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.MaxAge = -1
	}
	return c
}
