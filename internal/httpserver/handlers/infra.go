package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver/deps"
)

type componentStatus struct {
	OK          bool           `json:"ok"`
	ItemsLoaded *int           `json:"items_loaded,omitempty"`
	ByKind      map[string]int `json:"by_kind,omitempty"`
	LastRebuild string         `json:"last_rebuild,omitempty"`
	LastRefresh string         `json:"last_refresh,omitempty"`
	Location    string         `json:"location,omitempty"`
	Mode        string         `json:"mode,omitempty"`
	Impact      string         `json:"impact,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of the index, the cache store and both sources.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemsCount := d.MemoryIndex.Count()
		byKind := make(map[string]int)
		for k, n := range d.MemoryIndex.CountByKind() {
			byKind[string(k)] = n
		}

		meta := d.Store.Snapshot().Metadata

		components := map[string]componentStatus{
			"index": {
				OK:          itemsCount > 0,
				ItemsLoaded: &itemsCount,
				ByKind:      byKind,
				LastRebuild: formatTime(d.MemoryIndex.GetLastRebuild()),
			},
			"cache_store": checkStore(r.Context(), d),
			"files": {
				OK:          !meta.LastFileRefreshAt.IsZero(),
				LastRefresh: formatTime(meta.LastFileRefreshAt),
			},
			"steam_api": apiStatus(d, meta),
		}

		writeJSON(w, d, http.StatusOK, infraResponse{
			Status:     determineStatus(components),
			Components: components,
		})
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}

func determineStatus(components map[string]componentStatus) string {
	// Nothing to search = critical
	if idx, exists := components["index"]; exists {
		if idx.ItemsLoaded == nil || *idx.ItemsLoaded == 0 {
			return "critical"
		}
	}

	for _, name := range []string{"cache_store", "files", "steam_api"} {
		if c, exists := components[name]; exists && !c.OK {
			return "degraded"
		}
	}
	return "ok"
}

func apiStatus(d deps.Deps, meta domain.Metadata) componentStatus {
	if !d.APIEnabled {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "friends-and-owned-games-unavailable",
		}
	}
	return componentStatus{
		OK:          !meta.LastAPIRefreshAt.IsZero(),
		Mode:        "enabled",
		LastRefresh: formatTime(meta.LastAPIRefreshAt),
	}
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if d.StorePing == nil {
		return componentStatus{OK: true, Mode: "file", Location: d.StoreLocation}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.StorePing(ctx); err != nil {
		return componentStatus{
			OK:       false,
			Mode:     "redis",
			Location: d.StoreLocation,
			Impact:   "launch-stats-not-persisted",
			Error:    "unreachable",
		}
	}
	return componentStatus{OK: true, Mode: "redis", Location: d.StoreLocation}
}
