package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// IsNoRows reports whether err means an empty single-row result.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

// IsUniqueViolation reports a PostgreSQL unique constraint failure.
func IsUniqueViolation(err error) bool {
	return hasPgCode(err, pgUniqueViolation)
}

// IsExclusionViolation reports a PostgreSQL exclusion constraint failure,
// raised when two blocking appointments of one provider would overlap.
func IsExclusionViolation(err error) bool {
	return hasPgCode(err, pgExclusionViolation)
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
