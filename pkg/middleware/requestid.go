package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/crewplane/crewplane/pkg/contextkeys"
	"github.com/crewplane/crewplane/pkg/observability"
)

// RequestIDHeader is the header inspected for an inbound request ID and set
// on every response.
const RequestIDHeader = "X-Request-ID"

// RequestID attaches a request ID and a request-scoped logger to the request
// context. Inbound IDs from trusted proxies are kept; otherwise a UUID is
// generated.
func RequestID(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, id)

			reqLogger := logger.WithField("request_id", id)
			ctx := context.WithValue(r.Context(), contextkeys.RequestIDKey, id)
			ctx = context.WithValue(ctx, contextkeys.LoggerKey, reqLogger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID extracts the request ID from the request context.
func GetRequestID(r *http.Request) string {
	if id, ok := r.Context().Value(contextkeys.RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetLogger extracts the request-scoped logger, falling back to the provided
// default when the middleware did not run.
func GetLogger(r *http.Request, fallback *observability.Logger) *observability.Logger {
	if l, ok := r.Context().Value(contextkeys.LoggerKey).(*observability.Logger); ok {
		return l
	}
	return fallback
}
