package middleware

import (
	"log/slog"
	"net/http"

	"github.com/roamio/roamio/pkg/logger"
)

// RequestLogger stores a request-scoped logger in context, enriched with
// correlation_id, user_id, and the active trace/span. Handlers fetch it
// with logger.FromContext. Mount after RequestLogging (correlation ID),
// Tracing (span), and Auth (user) so all three are available.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if userID := UserIDFromContext(ctx); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
