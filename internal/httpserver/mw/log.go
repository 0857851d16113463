package mw

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

// Log writes one line per request. Server errors log at error level,
// client errors at warn and the rest at debug.
func Log(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.String("query", r.URL.Query().Get("q")),
				logger.Int("status", status),
				logger.Int("bytes", ww.BytesWritten()),
				logger.Duration("duration", time.Since(start)),
				logger.String("request_id", middleware.GetReqID(r.Context())),
			}

			switch {
			case status >= 500:
				log.Error("http_request", fields...)
			case status >= 400:
				log.Warn("http_request", fields...)
			default:
				log.Debug("http_request", fields...)
			}
		})
	}
}
