package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	phttp "garden/internal/platform/net/http"
)

func TestDocJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	serveDocJSON("(dev)")(rr, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var spec struct {
		Info  struct{ Title string } `json:"info"`
		Paths map[string]any         `json:"paths"`
		Srv   []map[string]any       `json:"servers"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &spec); err != nil {
		t.Fatal(err)
	}
	if spec.Info.Title != "garden API (dev)" || len(spec.Srv) != 1 {
		t.Fatalf("spec = %+v", spec)
	}
	for _, p := range []string{"/attendance/report", "/messages/find", "/meta/ready"} {
		if _, ok := spec.Paths[p]; !ok {
			t.Fatalf("missing path %s", p)
		}
	}
}

func TestDocJSON_Broken(t *testing.T) {
	prev := docReader
	t.Cleanup(func() { docReader = prev })
	docReader = func() []byte { return []byte("{") }

	rr := httptest.NewRecorder()
	serveDocJSON("")(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestMount(t *testing.T) {
	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), Options{Enabled: true})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	if rr.Code != http.StatusPermanentRedirect {
		t.Fatalf("redirect status = %d", rr.Code)
	}

	off := chi.NewRouter()
	Mount(phttp.AdaptChi(off), Options{})
	rr = httptest.NewRecorder()
	off.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("disabled docs status = %d", rr.Code)
	}
}
