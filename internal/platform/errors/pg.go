package errors

// Postgres-specific helpers for mapping pgx errors to project ErrorCode

import (
	stderrs "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Common SQLSTATE codes we care about
const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
	pgErrNotNullViolation    = "23502"
	pgErrCheckViolation      = "23514"
	pgErrCannotConnectNow    = "57P03"
)

// ExtractPgError returns (*pgconn.PgError, true) if the root cause is a PgError
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether the error is a Postgres error with the given SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsDuplicateKey reports whether the error is a unique constraint violation
func IsDuplicateKey(err error) bool { return IsSQLState(err, pgErrUniqueViolation) }

// IsNoRows reports whether the error is pgx.ErrNoRows at its root
func IsNoRows(err error) bool { return stderrs.Is(Root(err), pgx.ErrNoRows) }

// FromPG classifies a pgx error into a project error, wrapping the original.
// Non-PG errors are wrapped as generic DB errors
func FromPG(err error, op string) error {
	if err == nil {
		return nil
	}
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return WithOp(Wrapf(err, ErrorCodeDB, "%s failed", op), op)
	}
	code := ErrorCodeDB
	switch pgErr.Code {
	case pgErrUniqueViolation:
		code = ErrorCodeDuplicateKey
	case pgErrForeignKeyViolation:
		code = ErrorCodeInvalidArgument
	case pgErrNotNullViolation, pgErrCheckViolation:
		code = ErrorCodeValidation
	case pgErrCannotConnectNow:
		code = ErrorCodeUnavailable
	}
	return WithOp(Wrapf(err, code, "%s failed", op), op)
}
