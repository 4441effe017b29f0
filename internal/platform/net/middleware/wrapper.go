// Package middleware adapts chi and go-chi/cors middleware to plain
// func(http.Handler) http.Handler values
package middleware

import (
	"net/http"
	"time"

	pnet "garden/internal/platform/net"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// Middleware is the shape every constructor here returns
type Middleware = func(http.Handler) http.Handler

// RequestID reuses an inbound X-Request-Id or mints one, echoes it on the
// response and stores it where logger.C finds it
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return chimw.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chimw.GetReqID(r.Context())
			if id != "" {
				w.Header().Set("X-Request-ID", id)
			}
			next.ServeHTTP(w, r.WithContext(pnet.WithRequest(r.Context(), id)))
		}))
	}
}

// RealIP trusts X-Real-IP and X-Forwarded-For
func RealIP() Middleware { return chimw.RealIP }

// Timeout cancels the request context after d and answers 504
func Timeout(d time.Duration) Middleware { return chimw.Timeout(d) }

// NoCache forbids client and proxy caching
func NoCache() Middleware { return chimw.NoCache }

// Compress gzips or deflates responses for clients that accept it
func Compress(level int) Middleware { return chimw.NewCompressor(level).Handler }

// RedirectSlashes sends /foo/ to /foo
func RedirectSlashes() Middleware { return chimw.RedirectSlashes }

// StripSlashes routes /foo/ as /foo without a redirect
func StripSlashes() Middleware { return chimw.StripSlashes }

// Heartbeat answers GET path with 200 before routing
func Heartbeat(path string) Middleware { return chimw.Heartbeat(path) }

// CORSOptions narrows go-chi/cors. Empty lists take the defaults below
type CORSOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// CORS defaults to any origin with GET, POST and OPTIONS
func CORS(o CORSOptions) Middleware {
	pick := func(in []string, def ...string) []string {
		if len(in) == 0 {
			return def
		}
		return in
	}
	return chicors.Handler(chicors.Options{
		AllowedOrigins: pick(o.AllowedOrigins, "*"),
		AllowedMethods: pick(o.AllowedMethods, "GET", "POST", "OPTIONS"),
		AllowedHeaders: pick(o.AllowedHeaders, "Accept", "Content-Type", "X-Request-ID"),
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         o.MaxAge,
	})
}
