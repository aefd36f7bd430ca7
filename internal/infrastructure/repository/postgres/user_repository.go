package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mrops-br/estoque-api/internal/domain"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	insertUserSQL = `INSERT INTO users (email, password_hash) VALUES ($1, $2)
	RETURNING id::text, created_at`

	selectUserByEmailSQL = `SELECT id::text, email, password_hash, created_at
	FROM users WHERE lower(email) = lower($1)`
)

// UserRepository implements domain.UserRepository on PostgreSQL
type UserRepository struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
	logger *slog.Logger
}

var _ domain.UserRepository = (*UserRepository)(nil)

func NewUserRepository(pool *pgxpool.Pool, tracer trace.Tracer, logger *slog.Logger) *UserRepository {
	return &UserRepository{pool: pool, tracer: tracer, logger: logger}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, span := r.tracer.Start(ctx, "UserRepository.Create")
	defer span.End()

	err := r.pool.QueryRow(ctx, insertUserSQL, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return translate(span, err, domain.ErrStoreUnavailable)
	}

	r.logger.InfoContext(ctx, "User created in repository", slog.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "User created")
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "UserRepository.FindByEmail")
	defer span.End()

	var u domain.User
	err := r.pool.QueryRow(ctx, selectUserByEmailSQL, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, translate(span, err, domain.ErrUserNotFound)
	}

	span.SetStatus(codes.Ok, "User found")
	return &u, nil
}
