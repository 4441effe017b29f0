package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "garden/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func serve(t *testing.T, d Deps, path string, out any) {
	t.Helper()
	r := phttp.AdaptChi(chi.NewRouter())
	Register(r, d)

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, path, nil))
	if rec.Code != stdhttp.StatusOK {
		t.Fatalf("%s: status %d", path, rec.Code)
	}
	env := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatal(err)
	}
}

func TestReady(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("dial tcp: refused") }

	cases := []struct {
		name   string
		probes []Probe
		status string
		checks []string
	}{
		{"all ok", []Probe{{"pg", ok}, {"messages", ok}}, "ok", []string{"ok", "ok"}},
		{"skipped is fine", []Probe{{"pg", ok}, {"ch", nil}}, "ok", []string{"ok", "skipped"}},
		{"one down", []Probe{{"mongo", down}, {"messages", ok}}, "fail", []string{"fail", "ok"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got ReadyResponse
			serve(t, Deps{Probes: tc.probes}, "/ready", &got)
			if got.Status != tc.status || len(got.Checks) != len(tc.checks) {
				t.Fatalf("ready = %+v", got)
			}
			for i, want := range tc.checks {
				if got.Checks[i].Status != want || got.Checks[i].Name != tc.probes[i].Name {
					t.Fatalf("check %d = %+v, want %s", i, got.Checks[i], want)
				}
			}
		})
	}
}

func TestServiceUptime(t *testing.T) {
	started := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	d := Deps{
		Service: "garden-api",
		Started: started,
		Now:     func() time.Time { return started.Add(90 * time.Second) },
	}

	var svc ServiceResponse
	serve(t, d, "/service", &svc)
	if svc.Name != "garden-api" || svc.Uptime != 90 || svc.Started != "2024-01-03T09:00:00Z" {
		t.Fatalf("service = %+v", svc)
	}

	var h HealthResponse
	serve(t, d, "/health", &h)
	if !h.OK || h.Now != "2024-01-03T09:01:30Z" {
		t.Fatalf("health = %+v", h)
	}
}
