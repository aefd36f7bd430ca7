package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/estoque-api/internal/app/dto"
	"github.com/mrops-br/estoque-api/internal/app/service"
	"github.com/mrops-br/estoque-api/internal/domain"
	"github.com/mrops-br/estoque-api/internal/infrastructure/http/response"
)

const maxBodyBytes = 1 << 20

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.FromError(w, r, h.logger, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusCreated, dto.MessageResponse{
		Message: "Product created",
		Data:    product,
	})
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProductByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// ListProducts handles GET /api/products?categoria=&q=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.ProductFilter{
		Category: query.Get("categoria"),
		Search:   query.Get("q"),
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, products)
}

// UpdateProduct handles PUT /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.MessageResponse{
		Message: "Product updated",
		Data:    product,
	})
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.FromError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON reads a bounded JSON body into dst. Syntax and type errors
// wrap domain.ErrInvalidInput.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
