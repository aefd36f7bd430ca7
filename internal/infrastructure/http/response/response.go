package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mrops-br/estoque-api/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const internalMessage = "internal server error"

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends an error response with err's message
func Error(w http.ResponseWriter, status int, err error) {
	JSON(w, status, ErrorResponse{
		Error: err.Error(),
		Code:  codeOf(status),
	})
}

// FromError maps a domain error to its status code. Server-side failures are
// logged and answered with a generic message.
func FromError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			slog.String("error", err.Error()),
		)
		JSON(w, status, ErrorResponse{Error: internalMessage, Code: codeOf(status)})
		return
	}
	Error(w, status, err)
}

// StatusOf returns the HTTP status for err
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrEmailTaken):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func codeOf(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusInternalServerError:
		return "internal_server_error"
	default:
		return "error"
	}
}
