// Package swaggerkit serves the embedded OpenAPI document and Swagger UI
package swaggerkit

import (
	"net/http"

	phttp "garden/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Options controls the docs routes
type Options struct {
	Enabled bool
	// TitleSuffix is appended to the document title, e.g. "(staging)"
	TitleSuffix string
}

// Mount serves /api/docs/ and /api/docs/doc.json when enabled
func Mount(r phttp.Router, opt Options) {
	if !opt.Enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDocJSON(opt.TitleSuffix))
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}
