package httpx

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/meridianaudio/meridian/internal/telemetry"
	"github.com/rs/zerolog"
)

type contextKey string

const clientIPContextKey contextKey = "client_ip"

// ExtractClientIP extracts the client IP address from the request.
// Checks X-Forwarded-For header first (for proxied requests), then X-Real-IP, finally RemoteAddr.
func ExtractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take the first IP in the list (comma-separated)
		if before, _, ok := strings.Cut(xff, ","); ok {
			return before
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}

// ClientIPFromContext extracts the client IP from the request context.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey).(string)
	return ip
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Requests is a middleware that stores the client IP in the request context,
// attaches a request-scoped logger, and logs one line per request with
// method, path, status, and duration.
func Requests(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ip := ExtractClientIP(r)

			ctx := context.WithValue(r.Context(), clientIPContextKey, ip)
			ctx = logger.With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("addr", ip).
				Logger().WithContext(ctx)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			duration := time.Since(started)
			telemetry.GetMetrics().RequestDuration.Record(ctx, float64(duration.Milliseconds()))

			event := zerolog.Ctx(ctx).Info()
			if rec.status >= http.StatusInternalServerError {
				event = zerolog.Ctx(ctx).Error()
			}
			event.
				Int("status", rec.status).
				Dur("duration", duration).
				Msg("http request")
		})
	}
}
