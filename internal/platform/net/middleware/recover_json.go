package middleware

import (
	"net/http"
	"runtime/debug"

	perr "garden/internal/platform/errors"
	"garden/internal/platform/logger"
	phttp "garden/internal/platform/net/http"
)

var panicked = phttp.Handle(func(*http.Request) phttp.Response {
	return phttp.Error(perr.PanicErrf("panic recovered"))
})

// RecoverJSON logs a handler panic with its stack and answers with the 500
// envelope. http.ErrAbortHandler is re-raised for net/http to handle
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			panicked(w, r)
		}()
		next.ServeHTTP(w, r)
	})
}
