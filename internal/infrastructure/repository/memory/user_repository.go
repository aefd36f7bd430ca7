package memory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mrops-br/estoque-api/internal/domain"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// UserRepository keeps accounts in memory, keyed by lower-cased email
type UserRepository struct {
	mu     sync.RWMutex
	users  map[string]*domain.User
	tracer trace.Tracer
	logger *slog.Logger
}

var _ domain.UserRepository = (*UserRepository)(nil)

func NewUserRepository(tracer trace.Tracer, logger *slog.Logger) *UserRepository {
	return &UserRepository{
		users:  make(map[string]*domain.User),
		tracer: tracer,
		logger: logger,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, span := r.tracer.Start(ctx, "UserRepository.Create")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return unavailable(span, err)
	}

	key := strings.ToLower(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[key]; exists {
		span.RecordError(domain.ErrEmailTaken)
		span.SetStatus(codes.Error, "Email already registered")
		return domain.ErrEmailTaken
	}

	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	stored := *user
	r.users[key] = &stored

	r.logger.InfoContext(ctx, "User created in repository", slog.String("user_id", user.ID))
	span.SetStatus(codes.Ok, "User created")
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "UserRepository.FindByEmail")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, unavailable(span, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[strings.ToLower(email)]
	if !exists {
		span.SetStatus(codes.Error, "User not found")
		return nil, domain.ErrUserNotFound
	}

	found := *user
	return &found, nil
}

// unavailable maps a context failure to ErrStoreUnavailable and records it
func unavailable(span trace.Span, err error) error {
	wrapped := fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	span.RecordError(wrapped)
	span.SetStatus(codes.Error, "Record store unavailable")
	return wrapped
}
