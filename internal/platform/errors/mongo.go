package errors

// Mongo-specific helpers mirroring the Postgres mapping in pg.go

import (
	"context"
	stderrs "errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// NamespaceNotFound server error code
const mongoNamespaceNotFound = 26

// MongoErrorCode maps a driver error to an ErrorCode with an ok flag
// !ok means err did not originate in the driver
func MongoErrorCode(err error) (ErrorCode, bool) {
	switch {
	case err == nil:
		return ErrorCodeUnknown, false
	case stderrs.Is(err, mongo.ErrNoDocuments):
		return ErrorCodeNotFound, true
	case mongo.IsDuplicateKeyError(err):
		return ErrorCodeDuplicateKey, true
	case mongo.IsNetworkError(err):
		return ErrorCodeUnavailable, true
	case mongo.IsTimeout(err):
		return ErrorCodeUnavailable, true
	}
	var se mongo.ServerError
	if stderrs.As(err, &se) {
		if se.HasErrorCode(mongoNamespaceNotFound) {
			return ErrorCodeSchemaMissing, true
		}
		return ErrorCodeDB, true
	}
	return ErrorCodeUnknown, false
}

// FromMongo wraps a driver error with a mapped ErrorCode and message.
// If err is nil, returns nil
func FromMongo(err error, msg string) error {
	if err == nil {
		return nil
	}
	if code, ok := MongoErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// FromMongof is the formatted variant of FromMongo
func FromMongof(err error, format string, a ...any) error {
	return FromMongo(err, fmt.Sprintf(format, a...))
}

// IsMongoRetryable reports transient driver conditions: network failures and
// errors labelled retryable by the server. Local cancellations are never retried
func IsMongoRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if mongo.IsNetworkError(err) {
		return true
	}
	var se mongo.ServerError
	if stderrs.As(err, &se) {
		return se.HasErrorLabel("TransientTransactionError") || se.HasErrorLabel("RetryableWriteError")
	}
	return false
}
