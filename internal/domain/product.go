package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LowStockThreshold is the stock level at or below which a product is flagged.
const LowStockThreshold = 5

// Product represents one stock-keeping unit
type Product struct {
	ID            string
	Name          string
	Description   string
	Category      string
	Code          int
	Price         decimal.Decimal
	StockQuantity int
	SoldQuantity  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// SaleResult holds the quantities of a product after a sale
type SaleResult struct {
	ProductID     string
	StockQuantity int
	SoldQuantity  int
}

// NewProduct creates a new product with validation. The id is left empty;
// the record store assigns it on Create.
func NewProduct(name, description, category string, code int, price decimal.Decimal, stock int) (*Product, error) {
	product := &Product{
		Name:          strings.TrimSpace(name),
		Description:   description,
		Category:      category,
		Code:          code,
		Price:         price,
		StockQuantity: stock,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	return product, nil
}

// Validate performs business validation on the product
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("%w: stock quantity must not be negative", ErrInvalidInput)
	}
	if p.SoldQuantity < 0 {
		return fmt.Errorf("%w: sold quantity must not be negative", ErrInvalidInput)
	}
	return nil
}

// Sell moves one unit from stock to sold. Callers must hold whatever lock
// makes the check and the update a single step.
func (p *Product) Sell() (SaleResult, error) {
	if p.StockQuantity <= 0 {
		return SaleResult{}, ErrOutOfStock
	}
	p.StockQuantity--
	p.SoldQuantity++
	return SaleResult{
		ProductID:     p.ID,
		StockQuantity: p.StockQuantity,
		SoldQuantity:  p.SoldQuantity,
	}, nil
}

// IsLowStock reports whether the product is at or below LowStockThreshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= LowStockThreshold
}

// ProductChanges carries the fields of an edit. Nil fields are left untouched.
// Sold quantity is not editable.
type ProductChanges struct {
	Name          *string
	Description   *string
	Category      *string
	Code          *int
	Price         *decimal.Decimal
	StockQuantity *int
}

// Apply overwrites the provided fields and re-validates the product.
func (c ProductChanges) Apply(p *Product) error {
	if c.Name != nil {
		p.Name = strings.TrimSpace(*c.Name)
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Category != nil {
		p.Category = *c.Category
	}
	if c.Code != nil {
		p.Code = *c.Code
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
	if c.StockQuantity != nil {
		p.StockQuantity = *c.StockQuantity
	}
	return p.Validate()
}

// ProductFilter narrows a product listing. Zero value matches everything.
type ProductFilter struct {
	Category string
	Search   string
}

// Matches reports whether p passes the filter. Category is an exact match,
// Search a case-insensitive substring over name, description and category.
func (f ProductFilter) Matches(p *Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Category), term)
}

// LowStock returns the products at or below LowStockThreshold, in input order.
func LowStock(products []*Product) []*Product {
	var low []*Product
	for _, p := range products {
		if p.IsLowStock() {
			low = append(low, p)
		}
	}
	return low
}
