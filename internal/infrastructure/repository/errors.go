package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/davidleathers/normative-engine/internal/domain/normative"
)

// ErrNotFound aliases the domain sentinel so services can test for it without
// importing this package.
var (
	ErrNotFound     = normative.ErrNotFound
	ErrDuplicateKey = errors.New("duplicate key violation")
)

// IsNotFound reports whether the error indicates a missing framework.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyViolation reports whether the error is a unique constraint
// violation (PostgreSQL error code 23505).
func IsDuplicateKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, ErrDuplicateKey)
}
