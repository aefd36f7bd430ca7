package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mrops-br/estoque-api/internal/domain"
)

// Authenticator resolves a session token to a live session
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

// SessionToken reads the session token from the cookie, falling back to an
// Authorization: Bearer header.
func SessionToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireSession redirects requests without a live session to loginPath
func RequireSession(auth Authenticator, cookieName, loginPath string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := auth.Authenticate(r.Context(), SessionToken(r, cookieName)); err != nil {
				logger.DebugContext(r.Context(), "Redirecting unauthenticated page request",
					slog.String("url.path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
