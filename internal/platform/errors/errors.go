// Package errors carries coded errors from stores and services up to the
// HTTP envelope. Import it as perr
package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode classifies an Error. Values go over the wire as integers, so
// new codes are appended only
type ErrorCode uint16

const (
	ErrorCodeUnknown ErrorCode = iota
	ErrorCodePanic
	ErrorCodeUnavailable     // transient, a retry may succeed
	ErrorCodeTooManyRequests // upstream rate limit
	ErrorCodeConflict
	ErrorCodeUnauthorized
	ErrorCodeForbidden
	ErrorCodeInvalidArgument
	ErrorCodeValidation
	ErrorCodeJSON
	ErrorCodeNotFound
	ErrorCodeDuplicateKey
	ErrorCodeDB
	ErrorCodeSchemaMissing // schema, table or collection never provisioned
	ErrorCodeDecode        // undecodable input stream
)

var statusOf = map[ErrorCode]int{
	ErrorCodeUnavailable:     http.StatusServiceUnavailable,
	ErrorCodeSchemaMissing:   http.StatusServiceUnavailable,
	ErrorCodeTooManyRequests: http.StatusTooManyRequests,
	ErrorCodeConflict:        http.StatusConflict,
	ErrorCodeDuplicateKey:    http.StatusConflict,
	ErrorCodeUnauthorized:    http.StatusUnauthorized,
	ErrorCodeForbidden:       http.StatusForbidden,
	ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
	ErrorCodeDecode:          http.StatusUnprocessableEntity,
	ErrorCodeValidation:      http.StatusBadRequest,
	ErrorCodeJSON:            http.StatusBadRequest,
	ErrorCodeNotFound:        http.StatusNotFound,
}

// HTTPStatusCode maps c to a response status, 500 when unmapped
func HTTPStatusCode(c ErrorCode) int {
	if st, ok := statusOf[c]; ok {
		return st
	}
	return http.StatusInternalServerError
}

// Error is a coded error. msg is safe to show to API callers, orig is the
// wrapped cause and stays server side
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
}

// Wire is the client facing part of an Error
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

// Error renders op, msg and the cause, whichever are set
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.op != "" {
		b.WriteString(e.op)
		b.WriteString(": ")
	}
	b.WriteString(e.msg)
	if e.orig != nil {
		b.WriteString(": ")
		b.WriteString(e.orig.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.orig }

// Code is the machine readable classification
func (e *Error) Code() ErrorCode { return e.code }

// Field names the offending input, if any
func (e *Error) Field() string { return e.field }

// Op labels where the error was raised
func (e *Error) Op() string { return e.op }

// WireFrom projects err for the envelope. Foreign errors become Unknown
// with their text as message
func WireFrom(err error) Wire {
	switch e, ok := As(err); {
	case err == nil:
		return Wire{}
	case ok:
		return Wire{Code: e.code, Message: e.msg, Field: e.field}
	default:
		return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
	}
}

// Root walks Unwrap to the innermost cause
func Root(err error) error {
	for {
		next := stderrs.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// As finds the outermost *Error in the chain
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrs.As(err, &e)
	return e, ok
}

// CodeOf is Unknown for nil and foreign errors
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus maps err through HTTPStatusCode
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// with copies the *Error in err before changing it; foreign errors pass through
func with(err error, set func(*Error)) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	c := *e
	set(&c)
	return &c
}

// WithField names the input that caused err
func WithField(err error, field string) error {
	return with(err, func(e *Error) { e.field = field })
}

// WithOp labels err with the operation that raised it
func WithOp(err error, op string) error {
	return with(err, func(e *Error) { e.op = op })
}

func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

func Newf(code ErrorCode, format string, a ...any) error {
	return New(code, fmt.Sprintf(format, a...))
}

// Wrap keeps orig as the cause of a coded error
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return Wrap(orig, code, fmt.Sprintf(format, a...))
}

func NotFoundf(format string, a ...any) error      { return Newf(ErrorCodeNotFound, format, a...) }
func InvalidArgf(format string, a ...any) error    { return Newf(ErrorCodeInvalidArgument, format, a...) }
func JSONErrf(format string, a ...any) error       { return Newf(ErrorCodeJSON, format, a...) }
func PanicErrf(format string, a ...any) error      { return Newf(ErrorCodePanic, format, a...) }
func Conflictf(format string, a ...any) error      { return Newf(ErrorCodeConflict, format, a...) }
func SchemaMissingf(format string, a ...any) error { return Newf(ErrorCodeSchemaMissing, format, a...) }
func Decodef(format string, a ...any) error        { return Newf(ErrorCodeDecode, format, a...) }

// Retryable reports transient failures from either database driver
func Retryable(err error) bool { return IsRetryable(err) || IsMongoRetryable(err) }
