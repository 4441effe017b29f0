package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"garden/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	// Slow marks access log lines at warn level, 0 disables it
	Slow time.Duration
	// Observe receives every finished request, usually a metrics counter
	Observe func(method string, status int, elapsed time.Duration)
	// Origins restricts CORS, empty allows any origin
	Origins []string
}

// CommonStack returns a baseline per module middleware slice
func CommonStack(opts ...StackOptions) []func(http.Handler) http.Handler {
	var o StackOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return []func(http.Handler) http.Handler{
		// tracing / correlation
		middleware.RequestID(),
		middleware.RealIP(),

		// safety
		middleware.RecoverJSON,

		// cache / freshness
		middleware.NoCache(),

		// observability
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.Slow, Observe: o.Observe}),

		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.Origins}),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.RedirectSlashes(),
		middleware.StripSlashes(),
		middleware.Timeout(30 * time.Second),
	}
}
