package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mrops-br/estoque-api/internal/app/dto"
	"github.com/mrops-br/estoque-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ProductService handles product use cases
type ProductService struct {
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
	lowStockWarnings      metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	lowStockWarnings, _ := meter.Int64Counter(
		"inventory.low_stock.warnings",
		metric.WithDescription("Products reported at or below the low-stock threshold"),
	)

	return &ProductService{
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
		lowStockWarnings:      lowStockWarnings,
	}
}

// CreateProduct validates and stores a new product with nothing sold
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	if err := dto.Validate(req); err != nil {
		return nil, s.fail(ctx, span, "create", "Validation failed", err)
	}

	price := *req.Price
	span.SetAttributes(
		attribute.String("product.name", *req.Name),
		attribute.String("product.price", price.String()),
	)

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("name", *req.Name),
		slog.String("price", price.String()),
		slog.Int("stock", *req.Stock),
	)

	product, err := domain.NewProduct(*req.Name, req.Description, req.Category, *req.Code, price, *req.Stock)
	if err != nil {
		return nil, s.fail(ctx, span, "create", "Validation failed", err)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, s.fail(ctx, span, "create", "Failed to store product", err)
	}

	span.SetAttributes(attribute.String("product.id", product.ID))
	s.productCreatedCounter.Add(ctx, 1)
	s.record(ctx, "create", "success")

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", product.ID),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return dto.ToProductResponse(product), nil
}

// GetProductByID retrieves a product by ID
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	if err := checkProductID(id); err != nil {
		return nil, s.fail(ctx, span, "read", "Invalid product id", err)
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "read", "Product lookup failed", err)
	}

	s.record(ctx, "read", "success")
	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return dto.ToProductResponse(product), nil
}

// ListProducts returns the products matching filter in creation order and
// raises one low-stock warning per product at or below the threshold.
func (s *ProductService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	span.SetAttributes(
		attribute.String("filter.category", filter.Category),
		attribute.String("filter.search", filter.Search),
	)

	products, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, s.fail(ctx, span, "list", "Failed to retrieve products", err)
	}

	low := domain.LowStock(products)
	for _, p := range low {
		s.logger.WarnContext(ctx, "Product stock is low",
			slog.String("product_id", p.ID),
			slog.String("name", p.Name),
			slog.Int("stock", p.StockQuantity),
			slog.Int("threshold", domain.LowStockThreshold),
		)
		s.lowStockWarnings.Add(ctx, 1)
	}

	span.SetAttributes(
		attribute.Int("product.count", len(products)),
		attribute.Int("product.low_stock_count", len(low)),
	)
	s.record(ctx, "list", "success")

	s.logger.InfoContext(ctx, "Products listed successfully",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return dto.ToProductResponseList(products), nil
}

// UpdateProduct overwrites the provided fields. Sold quantity is never touched.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req *dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	if err := checkProductID(id); err != nil {
		return nil, s.fail(ctx, span, "update", "Invalid product id", err)
	}
	if err := dto.Validate(req); err != nil {
		return nil, s.fail(ctx, span, "update", "Validation failed", err)
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "update", "Product lookup failed", err)
	}

	if err := req.Changes().Apply(product); err != nil {
		return nil, s.fail(ctx, span, "update", "Validation failed", err)
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, s.fail(ctx, span, "update", "Failed to store product", err)
	}

	s.record(ctx, "update", "success")
	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return dto.ToProductResponse(product), nil
}

// DeleteProduct removes a product permanently
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	if err := checkProductID(id); err != nil {
		return s.fail(ctx, span, "delete", "Invalid product id", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail(ctx, span, "delete", "Failed to delete product", err)
	}

	s.record(ctx, "delete", "success")
	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.String("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}

func (s *ProductService) record(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

// fail marks the span, logs at a level matching the error and counts the
// outcome. It returns err unchanged.
func (s *ProductService) fail(ctx context.Context, span trace.Span, operation, status string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	logFailure(ctx, s.logger, status, err)
	s.record(ctx, operation, resultOf(err))
	return err
}

// checkProductID rejects ids that are not UUIDs before they reach the store
func checkProductID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed product id %q", domain.ErrInvalidInput, id)
	}
	return nil
}

// resultOf names the metric result attribute for err
func resultOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, domain.ErrEmailTaken):
		return "conflict"
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		return "denied"
	default:
		return "failure"
	}
}

// logFailure logs client mistakes at warn and everything else at error
func logFailure(ctx context.Context, logger *slog.Logger, msg string, err error) {
	level := slog.LevelError
	if resultOf(err) != "failure" {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, msg, slog.String("error", err.Error()))
}
