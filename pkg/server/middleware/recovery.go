package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	reqerrors "github.com/harriteja/reqguard/pkg/server/transport/errors"
	httputil "github.com/harriteja/reqguard/pkg/server/transport/http"
)

// RecoveryConfig holds configuration for the recovery middleware
type RecoveryConfig struct {
	// Logger is the zap logger instance to use
	Logger *zap.Logger
	// OnPanic replaces the default 500 response
	OnPanic func(http.ResponseWriter, *http.Request, interface{})
	// StackTrace determines whether to include stack traces in logs
	StackTrace bool
}

// RecoveryMiddleware turns a panic anywhere below it, including in a custom
// validator, into a 500 rejection
func RecoveryMiddleware(config RecoveryConfig) Middleware {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := httputil.NewResponseWriter(w)
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				fields := []zap.Field{
					zap.String("error", fmt.Sprint(err)),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", RequestID(r.Context())),
				}
				if config.StackTrace {
					fields = append(fields, zap.ByteString("stack", debug.Stack()))
				}
				logger.Error("Panic recovered", fields...)

				// too late to change the response
				if ww.Written() {
					return
				}
				if config.OnPanic != nil {
					config.OnPanic(ww, r, err)
					return
				}
				reqerrors.WriteError(ww, reqerrors.ErrInternalServer)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
