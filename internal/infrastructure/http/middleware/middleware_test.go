package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/estoque-api/internal/domain"
	"github.com/mrops-br/estoque-api/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
)

type stubAuth struct{ valid string }

func (s stubAuth) Authenticate(_ context.Context, token string) (*domain.Session, error) {
	if token == "" || token != s.valid {
		return nil, domain.ErrUnauthenticated
	}
	return &domain.Session{ID: "s1", Token: token}, nil
}

func TestSessionToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, SessionToken(req, "sid"))

	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", SessionToken(req, "sid"))

	req.AddCookie(&http.Cookie{Name: "sid", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", SessionToken(req, "sid"))
}

func TestRequireSession(t *testing.T) {
	page := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireSession(stubAuth{valid: "good"}, "sid", "/login.html", slog.New(slog.DiscardHandler))(page)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login.html", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "good"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPRouteContextUsesMatchedPattern(t *testing.T) {
	var route string
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(HTTPRouteContext())
		r.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
			route = telemetry.HTTPRouteFromContext(r.Context())
		})
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/42", nil))
	assert.Equal(t, "/api/products/{id}", route)
}
