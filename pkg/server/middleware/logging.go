package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	httputil "github.com/harriteja/reqguard/pkg/server/transport/http"
	reqerrors "github.com/harriteja/reqguard/pkg/server/transport/errors"
)

type requestIDKey struct{}

// RequestID returns the id assigned by LoggingMiddleware
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	// Logger is the zap logger instance to use
	Logger *zap.Logger
	// SkipPaths are paths that should not be logged
	SkipPaths []string
}

// LoggingMiddleware writes one access log entry per request. Each request gets
// an id, taken from X-Request-ID when the client sent one, which is echoed in
// the response and stored on the context.
func LoggingMiddleware(config LoggingConfig) Middleware {
	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(reqerrors.HeaderRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(reqerrors.HeaderRequestID, id)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := httputil.NewResponseWriter(w)
			next.ServeHTTP(ww, r)

			fields := []zap.Field{
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", ww.Status()),
				zap.Int64("bytes_written", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}

			switch {
			case ww.Status() >= 500:
				logger.Error("Server error", fields...)
			case ww.Status() >= 400:
				logger.Warn("Client error", fields...)
			default:
				logger.Info("Request served", fields...)
			}
		})
	}
}
