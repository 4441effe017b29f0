// Package net holds the request id context helpers shared by http packages
package net

import (
	"context"

	"garden/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// WithRequest stamps a request id where chi and the logger both find it
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	return logger.WithRequest(ctx, reqID)
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}
