package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrorCodeNotFound:        http.StatusNotFound,
		ErrorCodeValidation:      http.StatusBadRequest,
		ErrorCodeJSON:            http.StatusBadRequest,
		ErrorCodeInvalidArgument: http.StatusUnprocessableEntity,
		ErrorCodeConflict:        http.StatusConflict,
		ErrorCodeSchemaMissing:   http.StatusServiceUnavailable,
		ErrorCodeTooManyRequests: http.StatusTooManyRequests,
		ErrorCodePanic:           http.StatusInternalServerError,
		ErrorCode(999):           http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := HTTPStatusCode(code); got != want {
			t.Errorf("code %d: got %d want %d", code, got, want)
		}
	}
}

func TestError_Text(t *testing.T) {
	cause := stderrs.New("connection refused")
	cases := []struct {
		err  error
		want string
	}{
		{New(ErrorCodeNotFound, "member bob"), "member bob"},
		{Wrapf(cause, ErrorCodeUnavailable, "fetch %s", "abc123"), "fetch abc123: connection refused"},
		{WithOp(Wrap(cause, ErrorCodeDB, "apply"), "attendance:alice"), "attendance:alice: apply: connection refused"},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("got %q want %q", got, c.want)
		}
	}
	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatal("nil receiver")
	}
}

func TestWith_CopyOnWrite(t *testing.T) {
	base := New(ErrorCodeValidation, "bad date")
	withField := WithField(base, "date")

	e, _ := As(withField)
	if e.Field() != "date" {
		t.Fatalf("field: %q", e.Field())
	}
	if orig, _ := As(base); orig.Field() != "" {
		t.Fatal("original mutated")
	}

	plain := stderrs.New("plain")
	if WithField(plain, "x") != plain || WithOp(plain, "y") != plain {
		t.Fatal("foreign errors pass through unchanged")
	}
}

func TestWireFrom(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", WithField(Wrap(stderrs.New("secret dsn"), ErrorCodeDB, "load"), "user"))
	w := WireFrom(wrapped)
	if w.Code != ErrorCodeDB || w.Message != "load" || w.Field != "user" {
		t.Fatalf("wire: %+v", w)
	}
	if w := WireFrom(stderrs.New("boom")); w.Code != ErrorCodeUnknown || w.Message != "boom" {
		t.Fatalf("foreign: %+v", w)
	}
	if WireFrom(nil) != (Wire{}) {
		t.Fatal("nil wire")
	}
	if HTTPStatus(wrapped) != http.StatusInternalServerError {
		t.Fatal("status")
	}
}

func TestRootAndCodeOf(t *testing.T) {
	cause := stderrs.New("eof")
	err := fmt.Errorf("outer: %w", Wrap(cause, ErrorCodeDecode, "document 3"))
	if Root(err) != cause {
		t.Fatalf("root: %v", Root(err))
	}
	if Root(nil) != nil {
		t.Fatal("root of nil")
	}
	if CodeOf(err) != ErrorCodeDecode || CodeOf(cause) != ErrorCodeUnknown {
		t.Fatal("CodeOf")
	}
	sugar := map[ErrorCode]error{
		ErrorCodeNotFound:        NotFoundf("x"),
		ErrorCodeInvalidArgument: InvalidArgf("x"),
		ErrorCodeJSON:            JSONErrf("x"),
		ErrorCodePanic:           PanicErrf("x"),
		ErrorCodeConflict:        Conflictf("x"),
		ErrorCodeSchemaMissing:   SchemaMissingf("x"),
		ErrorCodeDecode:          Decodef("x"),
	}
	for code, e := range sugar {
		if !IsCode(e, code) {
			t.Errorf("code %d: got %d", code, CodeOf(e))
		}
	}
}
