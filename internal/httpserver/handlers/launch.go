package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver/deps"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

// Launch records a launch of ?id= (an item key such as "app:400") and
// returns the action to execute. Extension actions run server side.
func Launch(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.URL.Query().Get("id"))
		if key == "" {
			writeJSON(w, d, http.StatusBadRequest, errorResponse{Error: "missing id parameter"})
			return
		}

		res, err := d.Launcher.Launch(r.Context(), key)
		if errors.Is(err, domain.ErrUnknownItem) {
			writeJSON(w, d, http.StatusNotFound, errorResponse{Error: err.Error(), Code: domain.FailureCode(err)})
			return
		}
		if err != nil {
			d.Logger.Error("launch failed",
				logger.String("key", key),
				logger.Error(err))
			writeJSON(w, d, http.StatusInternalServerError, errorResponse{Error: err.Error(), Code: domain.FailureCode(err)})
			return
		}

		writeJSON(w, d, http.StatusOK, res)
	}
}
