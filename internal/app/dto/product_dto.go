package dto

import (
	"encoding/json"
	"time"

	"github.com/mrops-br/estoque-api/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents the request to create a product. Pointer
// fields distinguish "absent" from zero. Integer fields are bounded to the
// int4 columns that store them; the price sign is checked by the domain.
type CreateProductRequest struct {
	Name        *string          `json:"nome" validate:"required"`
	Description string           `json:"descricao"`
	Category    string           `json:"categoria"`
	Code        *int             `json:"cod_produto" validate:"required,gte=-2147483648,lte=2147483647"`
	Price       *decimal.Decimal `json:"preco" validate:"required"`
	Stock       *int             `json:"qtd_inicial" validate:"required,gte=0,lte=2147483647"`
}

// UpdateProductRequest represents an edit. Absent fields are left unchanged.
type UpdateProductRequest struct {
	Name        *string          `json:"nome"`
	Description *string          `json:"descricao"`
	Category    *string          `json:"categoria"`
	Code        *int             `json:"cod_produto" validate:"omitempty,gte=-2147483648,lte=2147483647"`
	Price       *decimal.Decimal `json:"preco"`
	Stock       *int             `json:"qtd_inicial" validate:"omitempty,gte=0,lte=2147483647"`
}

// Changes converts the request into domain changes
func (r *UpdateProductRequest) Changes() domain.ProductChanges {
	return domain.ProductChanges{
		Name:          r.Name,
		Description:   r.Description,
		Category:      r.Category,
		Code:          r.Code,
		Price:         r.Price,
		StockQuantity: r.Stock,
	}
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID          string      `json:"id"`
	Name        string      `json:"nome"`
	Description string      `json:"descricao"`
	Category    string      `json:"categoria"`
	Code        int         `json:"cod_produto"`
	Price       json.Number `json:"preco"`
	Stock       int         `json:"qtd_inicial"`
	Sold        int         `json:"qtd_vendida"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Code:        p.Code,
		Price:       decimalNumber(p.Price),
		Stock:       p.StockQuantity,
		Sold:        p.SoldQuantity,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []*domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}

// SellResponse is returned after a successful sale
type SellResponse struct {
	Message      string `json:"message"`
	NewStock     int    `json:"newStock"`
	NewSoldCount int    `json:"newSoldCount"`
}

// StatisticResponse is the wire shape of a SalesStatistic
type StatisticResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"nome"`
	UnitsSold int         `json:"qtd_vendida"`
	Revenue   json.Number `json:"valor_total"`
}

func ToStatisticResponseList(stats []domain.SalesStatistic) []StatisticResponse {
	responses := make([]StatisticResponse, len(stats))
	for i, s := range stats {
		responses[i] = StatisticResponse{
			ID:        s.ProductID,
			Name:      s.Name,
			UnitsSold: s.UnitsSold,
			Revenue:   decimalNumber(s.Revenue),
		}
	}
	return responses
}

// MessageResponse wraps mutation results as {message, data}
type MessageResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// decimalNumber renders d as a bare JSON number without float rounding
func decimalNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
