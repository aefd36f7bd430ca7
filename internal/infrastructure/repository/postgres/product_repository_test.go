package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mrops-br/estoque-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// setupTestDB connects to TEST_DATABASE_URL and skips when no database is reachable.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := New(ctx, url, "")
	if err != nil {
		t.Skipf("Skipping test: database not available: %v", err)
	}
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	_, err = pool.Exec(ctx, "TRUNCATE products")
	require.NoError(t, err)
	return pool
}

func newRepos(pool *pgxpool.Pool) (*ProductRepository, *UserRepository) {
	tracer := noop.NewTracerProvider().Tracer("test")
	logger := slog.New(slog.DiscardHandler)
	return NewProductRepository(pool, tracer, logger), NewUserRepository(pool, tracer, logger)
}

func TestProductRepositoryRoundTrip(t *testing.T) {
	pool := setupTestDB(t)
	repo, _ := newRepos(pool)
	ctx := context.Background()

	p, err := domain.NewProduct("Widget", "blue", "tools", 1, decimal.RequireFromString("9.99"), 6)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, p))
	require.NotEmpty(t, p.ID)

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", found.Name)
	assert.True(t, found.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, 0, found.SoldQuantity)

	found.StockQuantity = 4
	found.Category = "hardware"
	require.NoError(t, repo.Update(ctx, found))

	list, err := repo.FindAll(ctx, domain.ProductFilter{Category: "hardware"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 4, list[0].StockQuantity)

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err = repo.FindByID(ctx, p.ID)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
	require.ErrorIs(t, repo.Delete(ctx, p.ID), domain.ErrProductNotFound)
}

func TestProductRepositorySellIsConditional(t *testing.T) {
	pool := setupTestDB(t)
	repo, _ := newRepos(pool)
	ctx := context.Background()

	p, err := domain.NewProduct("Last one", "", "", 2, decimal.NewFromInt(5), 1)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, p))

	var sold, rejected atomic.Int64
	var g errgroup.Group
	for range 2 {
		g.Go(func() error {
			_, err := repo.Sell(ctx, p.ID)
			switch {
			case err == nil:
				sold.Add(1)
			case errors.Is(err, domain.ErrOutOfStock):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int64(1), sold.Load())
	assert.Equal(t, int64(1), rejected.Load())

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, found.StockQuantity)
	assert.Equal(t, 1, found.SoldQuantity)

	_, err = repo.Sell(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestUserRepositoryUniqueEmail(t *testing.T) {
	pool := setupTestDB(t)
	_, users := newRepos(pool)
	ctx := context.Background()

	email := "test-" + uuid.NewString() + "@example.com"
	require.NoError(t, users.Create(ctx, &domain.User{Email: email, PasswordHash: "x"}))
	require.ErrorIs(t, users.Create(ctx, &domain.User{Email: email, PasswordHash: "y"}), domain.ErrEmailTaken)

	found, err := users.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, email, found.Email)

	_, err = users.FindByEmail(ctx, "nobody-"+uuid.NewString()+"@example.com")
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
