package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// sqlstate classes; see the postgres errcodes appendix
var pgCodes = map[string]ErrorCode{
	"23505": ErrorCodeDuplicateKey,
	"23503": ErrorCodeInvalidArgument,
	"22001": ErrorCodeInvalidArgument,
	"22P02": ErrorCodeInvalidArgument,
	"23502": ErrorCodeValidation,
	"23514": ErrorCodeValidation,
	"42P01": ErrorCodeSchemaMissing,
	"3F000": ErrorCodeSchemaMissing,
	"25006": ErrorCodeUnavailable,
	"57P03": ErrorCodeUnavailable,
}

// contention states that succeed on a plain retry
var pgRetry = map[string]bool{"40001": true, "40P01": true, "55P03": true}

// DBErrorCode maps a Postgres error to an ErrorCode. ok is false when err
// carries no *pgconn.PgError
func DBErrorCode(err error) (code ErrorCode, ok bool) {
	var pgErr *pgconn.PgError
	if !stderrs.As(err, &pgErr) {
		return ErrorCodeUnknown, false
	}
	if c, found := pgCodes[pgErr.Code]; found {
		return c, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with its mapped code, nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// FromPostgresf is the formatted variant of FromPostgres
func FromPostgresf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// pgx reports some aborted commits only as text
var pgRetryText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"canceling statement due to lock timeout",
	"terminating connection due to administrator command",
}

// IsRetryable reports transient Postgres failures. Local cancellation is
// never retryable
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgRetry[pgErr.Code]
	}
	s := strings.ToLower(Root(err).Error())
	for _, t := range pgRetryText {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
