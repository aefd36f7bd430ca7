package memory

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mrops-br/estoque-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductRepository is an in-memory implementation of domain.ProductRepository.
// Every mutation happens under mu, so a sale's check and update are one step.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	order    []string
	tracer   trace.Tracer
	logger   *slog.Logger
}

var _ domain.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
		tracer:   tracer,
		logger:   logger,
	}
}

// Create stores a new product under a fresh id
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return unavailable(span, err)
	}

	now := time.Now().UTC()
	product.ID = uuid.NewString()
	product.SoldQuantity = 0
	product.CreatedAt = now
	product.UpdatedAt = now

	span.SetAttributes(
		attribute.String("product.id", product.ID),
		attribute.String("product.name", product.Name),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *product
	r.products[product.ID] = &stored
	r.order = append(r.order, product.ID)

	r.logger.InfoContext(ctx, "Product created in repository",
		slog.String("product_id", product.ID),
		slog.String("product_name", product.Name),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return nil
}

// FindByID retrieves a copy of the product with the given id
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	if err := ctx.Err(); err != nil {
		return nil, unavailable(span, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		r.logger.WarnContext(ctx, "Product not found",
			slog.String("product_id", id),
		)
		return nil, domain.ErrProductNotFound
	}

	span.SetStatus(codes.Ok, "Product found")
	found := *product
	return &found, nil
}

// FindAll retrieves the products matching filter in creation order
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, unavailable(span, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*domain.Product, 0, len(r.order))
	for _, id := range r.order {
		p := r.products[id]
		if !filter.Matches(p) {
			continue
		}
		found := *p
		products = append(products, &found)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))

	r.logger.DebugContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// Update overwrites the editable fields of an existing product. Sold quantity
// is kept from the stored row so an edit racing a sale cannot roll it back.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID))

	if err := ctx.Err(); err != nil {
		return unavailable(span, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.products[product.ID]
	if !exists {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		return domain.ErrProductNotFound
	}

	stored.Name = product.Name
	stored.Description = product.Description
	stored.Category = product.Category
	stored.Code = product.Code
	stored.Price = product.Price
	stored.StockQuantity = product.StockQuantity
	stored.UpdatedAt = time.Now().UTC()
	*product = *stored

	r.logger.InfoContext(ctx, "Product updated in repository",
		slog.String("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	if err := ctx.Err(); err != nil {
		return unavailable(span, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		return domain.ErrProductNotFound
	}

	delete(r.products, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })

	r.logger.InfoContext(ctx, "Product deleted from repository",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}

// Sell moves one unit from stock to sold while holding the write lock
func (r *ProductRepository) Sell(ctx context.Context, id string) (domain.SaleResult, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Sell")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	if err := ctx.Err(); err != nil {
		return domain.SaleResult{}, unavailable(span, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	product, exists := r.products[id]
	if !exists {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		return domain.SaleResult{}, domain.ErrProductNotFound
	}

	res, err := product.Sell()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product out of stock")
		return domain.SaleResult{}, err
	}
	product.UpdatedAt = time.Now().UTC()

	span.SetAttributes(
		attribute.Int("product.stock_quantity", res.StockQuantity),
		attribute.Int("product.sold_quantity", res.SoldQuantity),
	)
	span.SetStatus(codes.Ok, "Sale recorded")
	return res, nil
}
