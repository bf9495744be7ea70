package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

// CorrelationIDKey is the context key under which the request's correlation
// identifier travels.
const CorrelationIDKey contextKey = "correlation_id"

// CorrelationID tags every request with an identifier that follows the job
// from admission through the background runner into logs, notifications and
// history records. A client-supplied X-Correlation-ID header is honored so
// polling clients can reuse the identifier of the submitting request.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		w.Header().Set("X-Correlation-ID", correlationID)

		ctx := context.WithValue(r.Context(), CorrelationIDKey, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCorrelationID returns the correlation identifier stored in ctx, or the
// empty string outside the middleware chain.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}
