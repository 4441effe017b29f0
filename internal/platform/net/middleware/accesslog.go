package middleware

import (
	"net/http"
	"time"

	"garden/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLogOptions configures AccessLogZerolog
type AccessLogOptions struct {
	// Slow raises the line to warn once a request takes this long, 0 never does
	Slow time.Duration
	// Observe sees every finished request
	Observe func(method string, status int, elapsed time.Duration)
}

// AccessLogZerolog writes one line per request on the request scoped logger
func AccessLogZerolog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if opt.Observe != nil {
				opt.Observe(r.Method, status, elapsed)
			}

			log := logger.C(r.Context())
			evt := log.Info()
			if opt.Slow > 0 && elapsed >= opt.Slow {
				evt = log.Warn().Bool("slow", true)
			}
			evt.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", elapsed).
				Msg("http")
		})
	}
}
