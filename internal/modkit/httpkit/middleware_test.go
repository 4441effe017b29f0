package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func wrap(h http.Handler, stack []func(http.Handler) http.Handler) http.Handler {
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}
	return h
}

func TestCommonStack(t *testing.T) {
	var (
		method string
		status int
	)
	stack := CommonStack(StackOptions{
		Observe: func(m string, s int, _ time.Duration) { method, status = m, s },
		Origins: []string{"https://garden.example"},
	})
	h := wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}), stack)

	cases := []struct {
		name, method, path, origin string
		status                     int
		allowOrigin                string
	}{
		{name: "handler", method: http.MethodPost, path: "/attendance/report", status: http.StatusAccepted},
		{name: "heartbeat", method: http.MethodGet, path: "/health", status: http.StatusOK},
		{name: "allowed origin", method: http.MethodGet, path: "/x", origin: "https://garden.example", status: http.StatusAccepted, allowOrigin: "https://garden.example"},
		{name: "foreign origin", method: http.MethodGet, path: "/x", origin: "https://evil.example", status: http.StatusAccepted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tc.status {
				t.Fatalf("status %d, want %d", rr.Code, tc.status)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tc.allowOrigin {
				t.Fatalf("allow origin %q, want %q", got, tc.allowOrigin)
			}
			if rr.Header().Get("X-Request-ID") == "" && tc.path != "/health" {
				t.Fatal("request id not stamped")
			}
		})
	}

	if method != http.MethodGet || status != http.StatusAccepted {
		t.Fatalf("observed %s %d", method, status)
	}
}
