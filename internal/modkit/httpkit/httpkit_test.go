package httpkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "garden/internal/platform/errors"
	phttp "garden/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

type dayInput struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Code       perr.ErrorCode  `json:"code"`
	Data       json.RawMessage `json:"data"`
}

func serve(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec.Code, env
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	r := phttp.AdaptChi(chi.NewRouter())
	MountAPIV1(r, nil, func(api Router) {
		MountUnder(api, "/attendance", nil, func(rr Router) {
			PostJSON(rr, "/report", func(_ *http.Request, in dayInput) (any, error) {
				return map[string]string{"date": in.Date}, nil
			})
			Get(rr, "/calendar", func(*http.Request) (any, error) {
				return nil, perr.NotFoundf("no season")
			})
			Get(rr, "/empty", func(*http.Request) (any, error) {
				return phttp.NoContent(), nil
			})
		})
	})
	return r.Mux()
}

func TestPostJSON(t *testing.T) {
	h := newRouter(t)

	code, env := serve(t, h, http.MethodPost, "/api/v1/attendance/report", `{"date":"2024-01-02"}`)
	if code != http.StatusOK || string(env.Data) != `{"date":"2024-01-02"}` {
		t.Fatalf("ok = %d %s", code, env.Data)
	}

	code, env = serve(t, h, http.MethodPost, "/api/v1/attendance/report", `{"date":"02/01/2024"}`)
	if code != http.StatusBadRequest || env.Code != perr.ErrorCodeValidation {
		t.Fatalf("invalid = %d %v", code, env.Code)
	}

	code, _ = serve(t, h, http.MethodPost, "/api/v1/attendance/report", `{"date":"2024-01-02","x":1}`)
	if code != http.StatusBadRequest {
		t.Fatalf("unknown field = %d", code)
	}
}

func TestGet_ErrorAndPassthrough(t *testing.T) {
	h := newRouter(t)

	code, env := serve(t, h, http.MethodGet, "/api/v1/attendance/calendar", "")
	if code != http.StatusNotFound || env.Code != perr.ErrorCodeNotFound {
		t.Fatalf("calendar = %d %v", code, env.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/attendance/empty", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("empty = %d", rec.Code)
	}
}
