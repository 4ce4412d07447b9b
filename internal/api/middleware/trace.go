// Package middleware provides HTTP middleware for request tracing and
// authentication.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/lumalearn/luma-api/internal/api/shared"
	"github.com/lumalearn/luma-api/internal/platform/logger"
)

// TraceMiddleware adds a trace ID to the request context and attaches
// a trace-scoped logger. Apply it early in the chain so every handler
// sees the trace ID.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		log := slog.With(slog.String("trace_id", traceID))
		ctx = logger.WithLogger(ctx, log)

		log.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
