package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz is ready once the index was built from a committed cache and
// the cache store answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.MemoryIndex.GetLastRebuild().IsZero() {
			writeJSON(w, d, http.StatusServiceUnavailable, readyzResponse{Reason: "index not built"})
			return
		}
		if d.StorePing != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := d.StorePing(ctx); err != nil {
				writeJSON(w, d, http.StatusServiceUnavailable, readyzResponse{Reason: "cache store unreachable"})
				return
			}
		}
		writeJSON(w, d, http.StatusOK, readyzResponse{Ready: true})
	}
}
