package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mrops-br/estoque-api/internal/app/dto"
	"github.com/mrops-br/estoque-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

// AuthService is the identity provider: accounts, sign-in and sessions
type AuthService struct {
	users       domain.UserRepository
	tokens      domain.SessionTokens
	revocations domain.RevocationStore
	tracer      trace.Tracer
	logger      *slog.Logger
	attempts    metric.Int64Counter
	hashCost    int
	now         func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(
	users domain.UserRepository,
	tokens domain.SessionTokens,
	revocations domain.RevocationStore,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *AuthService {
	attempts, _ := meter.Int64Counter(
		"auth.operations",
		metric.WithDescription("Identity provider operations by result"),
	)

	return &AuthService{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		tracer:      tracer,
		logger:      logger,
		attempts:    attempts,
		hashCost:    bcrypt.DefaultCost,
		now:         time.Now,
	}
}

// Register creates an account. The password is stored as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	req.Email = strings.TrimSpace(req.Email)
	if err := dto.Validate(req); err != nil {
		return nil, s.fail(ctx, span, "register", "Validation failed", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, s.fail(ctx, span, "register", "Failed to hash password",
			fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
	}

	user := &domain.User{Email: req.Email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, s.fail(ctx, span, "register", "Failed to store user", err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	s.record(ctx, "register", "success")
	s.logger.InfoContext(ctx, "User registered", slog.String("user_id", user.ID))

	span.SetStatus(codes.Ok, "User registered")
	resp := dto.ToUserResponse(user)
	return &resp, nil
}

// Login checks the password and issues a session
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	req.Email = strings.TrimSpace(req.Email)
	if err := dto.Validate(req); err != nil {
		return nil, s.fail(ctx, span, "login", "Validation failed", err)
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, s.fail(ctx, span, "login", "Unknown email", domain.ErrInvalidCredentials)
	}
	if err != nil {
		return nil, s.fail(ctx, span, "login", "User lookup failed", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.fail(ctx, span, "login", "Password mismatch", domain.ErrInvalidCredentials)
	}

	sess, err := s.tokens.Issue(user)
	if err != nil {
		return nil, s.fail(ctx, span, "login", "Failed to issue session", err)
	}

	span.SetAttributes(
		attribute.String("user.id", user.ID),
		attribute.String("session.id", sess.ID),
	)
	s.record(ctx, "login", "success")
	s.logger.InfoContext(ctx, "User signed in",
		slog.String("user_id", user.ID),
		slog.String("session_id", sess.ID),
	)

	span.SetStatus(codes.Ok, "User signed in")
	return dto.ToLoginResponse(user, sess), nil
}

// Authenticate verifies token and rejects signed-out sessions
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Authenticate")
	defer span.End()

	sess, err := s.tokens.Parse(token)
	if err != nil {
		return nil, s.fail(ctx, span, "authenticate", "Invalid session", err)
	}

	revoked, err := s.revocations.IsRevoked(ctx, sess.ID)
	if err != nil {
		return nil, s.fail(ctx, span, "authenticate", "Revocation check failed", err)
	}
	if revoked {
		return nil, s.fail(ctx, span, "authenticate", "Session signed out",
			fmt.Errorf("%w: session signed out", domain.ErrUnauthenticated))
	}

	span.SetAttributes(attribute.String("session.id", sess.ID))
	s.record(ctx, "authenticate", "success")
	span.SetStatus(codes.Ok, "Session valid")
	return sess, nil
}

// Logout revokes the session behind token until it would have expired
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	sess, err := s.Authenticate(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "No session to sign out")
		return err
	}

	if err := s.revocations.Revoke(ctx, sess.ID, sess.ExpiresAt.Sub(s.now())); err != nil {
		return s.fail(ctx, span, "logout", "Failed to revoke session", err)
	}

	s.record(ctx, "logout", "success")
	s.logger.InfoContext(ctx, "User signed out",
		slog.String("user_id", sess.UserID),
		slog.String("session_id", sess.ID),
	)

	span.SetStatus(codes.Ok, "User signed out")
	return nil
}

func (s *AuthService) record(ctx context.Context, operation, result string) {
	s.attempts.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

func (s *AuthService) fail(ctx context.Context, span trace.Span, operation, status string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	logFailure(ctx, s.logger, status, err)
	s.record(ctx, operation, resultOf(err))
	return err
}
