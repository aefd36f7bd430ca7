package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mrops-br/estoque-api/internal/domain"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const productColumns = `id::text, name, description, category, product_code, price::text,
	stock_quantity, sold_quantity, created_at, updated_at`

const (
	insertProductSQL = `INSERT INTO products (name, description, category, product_code, price, stock_quantity)
	VALUES ($1, $2, $3, $4, $5::numeric, $6)
	RETURNING ` + productColumns

	selectProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1::uuid`

	selectProductsSQL = `SELECT ` + productColumns + ` FROM products
	WHERE ($1 = '' OR category = $1)
	  AND ($2 = '' OR strpos(lower(name), lower($2)) > 0
	               OR strpos(lower(description), lower($2)) > 0
	               OR strpos(lower(category), lower($2)) > 0)
	ORDER BY created_at, id`

	updateProductSQL = `UPDATE products
	SET name = $2, description = $3, category = $4, product_code = $5,
	    price = $6::numeric, stock_quantity = $7, updated_at = now()
	WHERE id = $1::uuid
	RETURNING ` + productColumns

	deleteProductSQL = `DELETE FROM products WHERE id = $1::uuid`

	// sellProductSQL is the whole sale: the stock check and both counters
	// move in one statement, so concurrent sellers cannot drive stock below zero.
	sellProductSQL = `UPDATE products
	SET stock_quantity = stock_quantity - 1,
	    sold_quantity  = sold_quantity + 1,
	    updated_at     = now()
	WHERE id = $1::uuid AND stock_quantity > 0
	RETURNING stock_quantity, sold_quantity`

	productExistsSQL = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1::uuid)`
)

// ProductRepository implements domain.ProductRepository on PostgreSQL
type ProductRepository struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *slog.Logger
}

var _ domain.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository constructs a ProductRepository
func NewProductRepository(pool *pgxpool.Pool, tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{pool: pool, tracer: tracer, logger: logger}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create")
	defer span.End()

	row := r.pool.QueryRow(ctx, insertProductSQL,
		product.Name, product.Description, product.Category, product.Code,
		product.Price.String(), product.StockQuantity,
	)
	created, err := scanProduct(row)
	if err != nil {
		return translate(span, err, domain.ErrStoreUnavailable)
	}
	*product = *created

	span.SetAttributes(attribute.String("product.id", product.ID))
	r.logger.InfoContext(ctx, "Product created in repository",
		slog.String("product_id", product.ID),
		slog.String("product_name", product.Name),
	)
	span.SetStatus(codes.Ok, "Product created successfully")
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	product, err := scanProduct(r.pool.QueryRow(ctx, selectProductSQL, id))
	if err != nil {
		return nil, translate(span, err, domain.ErrProductNotFound)
	}

	span.SetStatus(codes.Ok, "Product found")
	return product, nil
}

func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	rows, err := r.pool.Query(ctx, selectProductsSQL, filter.Category, filter.Search)
	if err != nil {
		return nil, translate(span, err, domain.ErrStoreUnavailable)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, translate(span, err, domain.ErrStoreUnavailable)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(span, err, domain.ErrStoreUnavailable)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	r.logger.DebugContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)
	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

// Update overwrites the editable columns. sold_quantity is never written here.
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Update")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", product.ID))

	row := r.pool.QueryRow(ctx, updateProductSQL,
		product.ID, product.Name, product.Description, product.Category, product.Code,
		product.Price.String(), product.StockQuantity,
	)
	updated, err := scanProduct(row)
	if err != nil {
		return translate(span, err, domain.ErrProductNotFound)
	}
	*product = *updated

	r.logger.InfoContext(ctx, "Product updated in repository",
		slog.String("product_id", product.ID),
	)
	span.SetStatus(codes.Ok, "Product updated successfully")
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return translate(span, err, domain.ErrProductNotFound)
	}
	if tag.RowsAffected() == 0 {
		return translate(span, pgx.ErrNoRows, domain.ErrProductNotFound)
	}

	r.logger.InfoContext(ctx, "Product deleted from repository",
		slog.String("product_id", id),
	)
	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}

// Sell runs the conditional decrement. When no row qualifies, a second read
// only decides which error to report; it never changes data.
func (r *ProductRepository) Sell(ctx context.Context, id string) (domain.SaleResult, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Sell")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	res := domain.SaleResult{ProductID: id}
	err := r.pool.QueryRow(ctx, sellProductSQL, id).Scan(&res.StockQuantity, &res.SoldQuantity)
	if err == nil {
		span.SetAttributes(
			attribute.Int("product.stock_quantity", res.StockQuantity),
			attribute.Int("product.sold_quantity", res.SoldQuantity),
		)
		span.SetStatus(codes.Ok, "Sale recorded")
		return res, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.SaleResult{}, translate(span, err, domain.ErrStoreUnavailable)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, productExistsSQL, id).Scan(&exists); err != nil {
		return domain.SaleResult{}, translate(span, err, domain.ErrStoreUnavailable)
	}
	if !exists {
		return domain.SaleResult{}, translate(span, pgx.ErrNoRows, domain.ErrProductNotFound)
	}
	return domain.SaleResult{}, translate(span, pgx.ErrNoRows, domain.ErrOutOfStock)
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Code, &price,
		&p.StockQuantity, &p.SoldQuantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse price %q: %w", price, err)
	}
	return &p, nil
}
