package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/steamjump/internal/httpserver/deps"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

// Reload triggers a forced refresh of both sources
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual refresh triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusAccepted)
			if _, err := w.Write([]byte("✅ Refresh triggered successfully\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		default:
			d.Logger.Warn("refresh already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := w.Write([]byte("⏳ Refresh already in progress, please wait\n")); err != nil {
				d.Logger.Debug("failed to write response", logger.Error(err))
			}
		}
	}
}
