package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/estoque-api/internal/app/dto"
	"github.com/mrops-br/estoque-api/internal/app/service"
	"github.com/mrops-br/estoque-api/internal/infrastructure/http/response"
)

// LedgerHandler exposes sales and statistics
type LedgerHandler struct {
	service *service.LedgerService
	logger  *slog.Logger
}

func NewLedgerHandler(service *service.LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{service: service, logger: logger}
}

// Sell handles POST /api/products/{id}/sell
func (h *LedgerHandler) Sell(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Sell(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, result)
}

// Statistics handles GET /api/statistics
func (h *LedgerHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToStatisticResponseList(stats))
}
