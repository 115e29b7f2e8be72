package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the repositories translate
const (
	CodeExclusionViolation  = "23P01"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
	CodeUniqueViolation     = "23505"
)

// HasCode reports whether err carries the given SQLSTATE
func HasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// IsNoRows reports whether a single-row query matched nothing
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
