package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type loggerKey struct{}

// RequestLogger attaches a request-scoped logrus entry to the context and
// logs each completed request.
func RequestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			entry := logger.WithFields(logrus.Fields{
				"method":     req.Method,
				"path":       req.URL.Path,
				"remote_ip":  req.RemoteAddr,
				"request_id": middleware.GetReqID(req.Context()),
			})

			ctx := context.WithValue(req.Context(), loggerKey{}, entry)
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, req.WithContext(ctx))

			entry.WithFields(logrus.Fields{
				"status":   ww.Status(),
				"duration": time.Since(start).String(),
			}).Debug("request completed")
		})
	}
}

// loggerFrom returns the request logger, or the standard logger outside a
// request.
func loggerFrom(ctx context.Context) logrus.FieldLogger {
	if entry, ok := ctx.Value(loggerKey{}).(*logrus.Entry); ok {
		return entry
	}
	return logrus.StandardLogger()
}
