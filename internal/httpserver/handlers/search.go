package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver/deps"
	"github.com/MrSnakeDoc/steamjump/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Search ranks items for ?scope=&q=. An empty q lists the most used items.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))

		scope, err := domain.ParseScope(r.URL.Query().Get("scope"))
		if err != nil {
			writeJSON(w, d, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "bad_scope"})
			return
		}

		d.Logger.Debug("search request",
			logger.String("scope", string(scope)),
			logger.String("query", query))

		resp := d.Launcher.Search(r.Context(), scope, query)
		writeJSON(w, d, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, d deps.Deps, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}
