// Package postgres implements the record store on PostgreSQL through pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mrops-br/estoque-api/internal/domain"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:embed schema.sql
var schema string

// Postgres error codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeInvalidTextEncoding = "22P02"
	codeNumericOutOfRange   = "22003"
)

// New creates a connection pool for url. A non-empty accessKey replaces the
// password carried in the url.
func New(ctx context.Context, url, accessKey string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if accessKey != "" {
		config.ConnConfig.Password = accessKey
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return pool, nil
}

// Migrate applies the embedded schema. Statements are idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// translate maps driver errors onto the domain taxonomy. notFound is
// returned for pgx.ErrNoRows.
func translate(span trace.Span, err error, notFound error) error {
	if err == nil {
		return nil
	}

	var mapped error
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		mapped = notFound
	case errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation:
		mapped = domain.ErrEmailTaken
	case errors.As(err, &pgErr) && isInputError(pgErr.Code):
		mapped = fmt.Errorf("%w: %s", domain.ErrInvalidInput, pgErr.Message)
	default:
		mapped = fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	span.RecordError(mapped)
	span.SetStatus(codes.Error, mapped.Error())
	return mapped
}

func isInputError(code string) bool {
	switch code {
	case codeCheckViolation, codeInvalidTextEncoding, codeNumericOutOfRange:
		return true
	}
	return false
}
