// Package http holds the JSON envelope, the return-style handler adapter,
// the router seam and the server lifecycle
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "garden/internal/platform/errors"
	"garden/internal/platform/logger"
	pnet "garden/internal/platform/net"
)

// Envelope wraps every JSON body. Data is set on success, Code, Error and
// Field on failure
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// JSON writes v with status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Warn().Err(err).Msg("encode response")
	}
}

// Response is what return-style handlers produce. A Body holding an error
// is rendered as a failure envelope with the error's status
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
}

// OK is a 200 with data
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// NoContent is an empty 204
func NoContent() Response { return Response{Status: stdhttp.StatusNoContent} }

// Error defers the status to the error code
func Error(err error) Response { return Response{Body: err} }

// Handle adapts a Response-returning func to net/http
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		resp := h(r)
		for k, vv := range resp.Header {
			w.Header()[k] = append(w.Header()[k], vv...)
		}
		if resp.Status == stdhttp.StatusNoContent {
			w.WriteHeader(resp.Status)
			return
		}
		env := resp.envelope()
		env.RequestID = pnet.RequestID(r.Context())
		JSON(w, env.StatusCode, env)
	}
}

func (resp Response) envelope() Envelope {
	var env Envelope
	if err, ok := resp.Body.(error); ok && err != nil {
		wr := perr.WireFrom(err)
		env = Envelope{StatusCode: perr.HTTPStatus(err), Code: wr.Code, Error: wr.Message, Field: wr.Field}
	} else {
		env = Envelope{StatusCode: resp.Status, Data: resp.Body}
		if env.StatusCode == 0 {
			env.StatusCode = stdhttp.StatusOK
		}
	}
	env.Status = stdhttp.StatusText(env.StatusCode)
	return env
}
