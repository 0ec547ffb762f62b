package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Strob0t/PlanForge/internal/domain"
)

// Postgres SQLSTATE codes the store maps to domain errors.
const (
	codeUniqueViolation = "23505"
	codeInvalidText     = "22P02" // malformed uuid literal
)

// scannable is satisfied by pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// optional maps nil and "" to SQL NULL.
func optional(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// classify wraps err with op, translating missing rows and malformed ids to
// domain.ErrNotFound and unique violations to domain.ErrConflict.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows), sqlState(err) == codeInvalidText:
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case sqlState(err) == codeUniqueViolation:
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
