package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/roamio/roamio/pkg/logger"
)

type accessRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (ar *accessRecorder) WriteHeader(code int) {
	ar.status = code
	ar.ResponseWriter.WriteHeader(code)
}

func (ar *accessRecorder) Write(b []byte) (int, error) {
	n, err := ar.ResponseWriter.Write(b)
	ar.bytes += n
	return n, err
}

// RequestLogging writes one access-log line per request and assigns the
// correlation ID: taken from X-Correlation-ID when the caller sends one,
// generated otherwise, and always echoed back in the response header.
func RequestLogging(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := r.Header.Get("X-Correlation-ID")
			if correlationID == "" {
				correlationID = uuid.New().String()
			}
			ctx := logger.WithCorrelationID(r.Context(), correlationID)
			r = r.WithContext(ctx)
			w.Header().Set("X-Correlation-ID", correlationID)

			rec := &accessRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			l.InfoContext(ctx, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", rec.bytes),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
				slog.String("correlation_id", correlationID),
			)
		})
	}
}
