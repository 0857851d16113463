package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/steamjump/internal/httpserver/deps"
	"github.com/MrSnakeDoc/steamjump/internal/httpserver/handlers"
)

func init() { Register(Probe, registerProbes) }

// registerProbes mounts the health, readiness and infra endpoints.
func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.Get("/readyz", handlers.Readyz(d))
	r.Get("/infra", handlers.Infra(d))
}
