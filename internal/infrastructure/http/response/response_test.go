package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mrops-br/estoque-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: preco is required", domain.ErrInvalidInput), http.StatusBadRequest},
		{domain.ErrOutOfStock, http.StatusBadRequest},
		{domain.ErrInvalidCredentials, http.StatusBadRequest},
		{domain.ErrEmailTaken, http.StatusBadRequest},
		{domain.ErrProductNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: session expired", domain.ErrUnauthenticated), http.StatusUnauthorized},
		{domain.ErrStoreUnavailable, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestFromErrorHidesServerFailures(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/statistics", nil)

	FromError(rec, req, slog.New(slog.DiscardHandler),
		fmt.Errorf("%w: dial tcp 10.0.0.5:5432: connection refused", domain.ErrStoreUnavailable))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Error)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestFromErrorExposesClientErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/products", nil)

	FromError(rec, req, slog.New(slog.DiscardHandler), fmt.Errorf("%w: preco is required", domain.ErrInvalidInput))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"invalid input: preco is required","code":"bad_request"}`, rec.Body.String())
}
