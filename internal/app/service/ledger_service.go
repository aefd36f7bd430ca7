package service

import (
	"context"
	"log/slog"

	"github.com/mrops-br/estoque-api/internal/app/dto"
	"github.com/mrops-br/estoque-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// LedgerService records sales and derives sales statistics
type LedgerService struct {
	repo       domain.ProductRepository
	tracer     trace.Tracer
	logger     *slog.Logger
	salesTotal metric.Int64Counter
	unitsSold  metric.Int64Counter
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *LedgerService {
	salesTotal, _ := meter.Int64Counter(
		"inventory.sales.total",
		metric.WithDescription("Sell attempts by result"),
	)

	unitsSold, _ := meter.Int64Counter(
		"inventory.units.sold",
		metric.WithDescription("Units moved from stock to sold"),
		metric.WithUnit("{unit}"),
	)

	return &LedgerService{
		repo:       repo,
		tracer:     tracer,
		logger:     logger,
		salesTotal: salesTotal,
		unitsSold:  unitsSold,
	}
}

// Sell moves one unit of the product from stock to sold
func (s *LedgerService) Sell(ctx context.Context, productID string) (*dto.SellResponse, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.Sell")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", productID))

	if err := checkProductID(productID); err != nil {
		return nil, s.fail(ctx, span, "Invalid product id", err)
	}

	result, err := s.repo.Sell(ctx, productID)
	if err != nil {
		return nil, s.fail(ctx, span, "Sale rejected", err)
	}

	span.SetAttributes(
		attribute.Int("product.stock_quantity", result.StockQuantity),
		attribute.Int("product.sold_quantity", result.SoldQuantity),
	)
	s.salesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "success")))
	s.unitsSold.Add(ctx, 1)

	s.logger.InfoContext(ctx, "Sale recorded",
		slog.String("product_id", productID),
		slog.Int("stock", result.StockQuantity),
		slog.Int("sold", result.SoldQuantity),
	)
	if result.StockQuantity <= domain.LowStockThreshold {
		s.logger.WarnContext(ctx, "Product stock is low",
			slog.String("product_id", productID),
			slog.Int("stock", result.StockQuantity),
			slog.Int("threshold", domain.LowStockThreshold),
		)
	}

	span.SetStatus(codes.Ok, "Sale recorded")
	return &dto.SellResponse{
		Message:      "Sale recorded",
		NewStock:     result.StockQuantity,
		NewSoldCount: result.SoldQuantity,
	}, nil
}

// Statistics derives per-product sales figures from a fresh read of the store
func (s *LedgerService) Statistics(ctx context.Context) ([]domain.SalesStatistic, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerService.Statistics")
	defer span.End()

	products, err := s.repo.FindAll(ctx, domain.ProductFilter{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to retrieve products")
		logFailure(ctx, s.logger, "Failed to derive statistics", err)
		return nil, err
	}

	stats := domain.DeriveStatistics(products)
	span.SetAttributes(attribute.Int("statistics.count", len(stats)))

	s.logger.InfoContext(ctx, "Statistics derived",
		slog.Int("products", len(products)),
		slog.Int("entries", len(stats)),
	)

	span.SetStatus(codes.Ok, "Statistics derived")
	return stats, nil
}

func (s *LedgerService) fail(ctx context.Context, span trace.Span, status string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	logFailure(ctx, s.logger, status, err)
	s.salesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", resultOf(err))))
	return err
}
